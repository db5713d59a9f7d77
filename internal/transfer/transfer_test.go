package transfer

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	cases := []struct {
		in    string
		enc   Encoding
		known bool
	}{
		{"", Identity, true},
		{"7bit", Identity, true},
		{" 8BIT ", Identity, true},
		{"binary", Identity, true},
		{"Quoted-Printable", QuotedPrintable, true},
		{"base64; foo", Base64, true},
		{"x-uuencode", Uuencode, true},
		{"x-uue", Uuencode, true},
		{"x-gzip64", Identity, false},
	}
	for _, c := range cases {
		enc, known := ParseEncoding(c.in)
		assert.Equal(t, c.enc, enc, c.in)
		assert.Equal(t, c.known, known, c.in)
	}
	assert.True(t, IsPlain("7bit"))
	assert.False(t, IsPlain("base64"))
}

func TestDecodeQPLine(t *testing.T) {
	out, soft := DecodeQPLine("Caf=E9\n")
	assert.False(t, soft)
	assert.Equal(t, []byte("Caf\xe9\n"), out)
	assert.Equal(t, byte(0xe9), out[len(out)-2])

	out, soft = DecodeQPLine("soft=  \r\n")
	assert.True(t, soft)
	assert.Equal(t, "soft", string(out))

	out, _ = DecodeQPLine("a==b =zz =3d\n")
	assert.Equal(t, "a=b =zz =\n", string(out))
}

func TestBase64SplitAcrossLines(t *testing.T) {
	payload := []byte("The quick brown fox jumps over the lazy dog, twice over.")
	encoded := base64.StdEncoding.EncodeToString(payload)

	var whole Base64Decoder
	want := whole.Decode(encoded)
	require.Equal(t, payload, want)

	for _, width := range []int{1, 2, 3, 5, 7, 13, 76} {
		var d Base64Decoder
		var got []byte
		for i := 0; i < len(encoded); i += width {
			end := i + width
			if end > len(encoded) {
				end = len(encoded)
			}
			got = append(got, d.Decode(encoded[i:end]+"\r\n")...)
		}
		assert.Equal(t, want, got, "width %d", width)
		assert.Zero(t, d.Pending())
	}
}

func TestBase64Reset(t *testing.T) {
	var d Base64Decoder
	d.Decode("QU")
	require.Equal(t, 2, d.Pending())
	d.Reset()
	assert.Equal(t, []byte("Hi"), d.Decode("SGk="))
}

func TestBase64IgnoresAfterPadding(t *testing.T) {
	var d Base64Decoder
	assert.Equal(t, []byte("Hi"), d.Decode("SGk=SGk="))
	assert.Empty(t, d.Decode("SGk="))
}

func uuencode(data []byte) string {
	var b strings.Builder
	enc := func(c byte) byte {
		if c == 0 {
			return '`'
		}
		return c + ' '
	}
	for len(data) > 0 {
		n := len(data)
		if n > 45 {
			n = 45
		}
		chunk := data[:n]
		data = data[n:]
		b.WriteByte(enc(byte(n)))
		for i := 0; i < len(chunk); i += 3 {
			var g [3]byte
			copy(g[:], chunk[i:])
			b.WriteByte(enc(g[0] >> 2))
			b.WriteByte(enc((g[0]&3)<<4 | g[1]>>4))
			b.WriteByte(enc((g[1]&0xf)<<2 | g[2]>>6))
			b.WriteByte(enc(g[2] & 0x3f))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func lines(s string) func() (string, bool) {
	ls := strings.SplitAfter(s, "\n")
	return func() (string, bool) {
		for len(ls) > 0 {
			l := ls[0]
			ls = ls[1:]
			if l != "" {
				return l, true
			}
		}
		return "", false
	}
}

func TestUudecode(t *testing.T) {
	f := Uudecode(lines("begin 644 cat.txt\n#0V%T\n`\nend\n"))
	assert.True(t, f.Complete)
	assert.Equal(t, "cat.txt", f.Name)
	assert.Equal(t, "644", f.Mode)
	assert.Equal(t, []byte("Cat"), f.Data)

	payload := bytes.Repeat([]byte{0, 1, 2, 250, 'x'}, 40)
	f = Uudecode(lines("begin 600 blob.bin\n" + uuencode(payload) + "`\nend\n"))
	assert.True(t, f.Complete)
	assert.Equal(t, payload, f.Data)
}

func TestUudecodeTruncated(t *testing.T) {
	f := Uudecode(lines("begin 644 cat.txt\n#0V%T\n"))
	assert.False(t, f.Complete)
	assert.Equal(t, []byte("Cat"), f.Data)
}

func TestParseBegin(t *testing.T) {
	_, _, ok := ParseBegin("begin here")
	assert.False(t, ok)
	_, name, ok := ParseBegin("begin 755 my file.sh")
	assert.True(t, ok)
	assert.Equal(t, "my file.sh", name)
}
