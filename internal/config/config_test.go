package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())
	assert.Equal(t, AltNone, p.SaveAlts)
	assert.True(t, p.FormatFlowed)
}

func TestParse(t *testing.T) {
	p, err := Parse([]byte(`
ignore_types: [application/pgp-signature, $BINARY]
preferred_types: [text/enriched, text/html]
save_alts: 2
max_attach_per_msg: 5
delete_older: 2001-01-01
default_charset: utf-8
`))
	require.NoError(t, err)
	assert.Equal(t, AltStore, p.SaveAlts)
	assert.Equal(t, 5, p.MaxAttachPerMsg)
	assert.Equal(t, "utf-8", p.DefaultCharset)
	assert.Equal(t, 1, p.PreferredPosition("TEXT/HTML"))
	assert.Equal(t, -1, p.PreferredPosition("text/plain"))
	assert.True(t, p.IsIgnored("application/pgp-signature", false))
	assert.True(t, p.IsIgnored("image/png", true))
	assert.False(t, p.IsIgnored("text/plain", false))

	older, err := p.OlderLimit()
	require.NoError(t, err)
	assert.Equal(t, 2001, older.Year())

	// untouched keys keep their defaults
	assert.Equal(t, "X-Mailer", p.AppleMailUAHeader)
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse([]byte("save_alts: sometimes\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("max_attach_per_msg: -1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("delete_newer: yesterday\n"))
	assert.Error(t, err)
}

func TestAltModeNames(t *testing.T) {
	for in, want := range map[string]AltMode{"none": AltNone, "inline": AltInline, "1": AltInline, "store": AltStore, "false": AltNone} {
		p, err := Parse([]byte("save_alts: " + in + "\n"))
		require.NoError(t, err, in)
		assert.Equal(t, want, p.SaveAlts, in)
	}
}

func TestNonPlain(t *testing.T) {
	p := Default()
	p.IgnoreTypes = []string{IgnoreNonPlain}
	assert.True(t, p.IsIgnored("text/html", false))
	assert.False(t, p.IsIgnored("text/plain", false))
	assert.False(t, p.IsIgnored("multipart/mixed", false))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inline_html: true\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.True(t, p.InlineHTML)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	p, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestTypeLists(t *testing.T) {
	p := Default()
	assert.True(t, p.IsText("text"))
	assert.True(t, p.IsText("Text/Plain"))
	assert.False(t, p.IsText("text/html"))
	assert.True(t, p.IsInline("image/png"))
	assert.True(t, p.HonorsDisposition("image/png"))
	assert.True(t, p.IsDeletedHeader("x-no-archive"))
	assert.True(t, p.IsAppleMailUA("Apple Mail (2.1084)"))
	assert.True(t, p.IsAppleMailUA("iPhone Mail (8A400)"))
	assert.False(t, p.IsAppleMailUA("Mutt/1.5"))
}
