package encword

import (
	"mime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func latin1(charset string, data []byte) (string, bool) {
	if charset != "iso-8859-1" {
		return string(data), true
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func TestDecodeQ(t *testing.T) {
	d := Decoder{Convert: latin1}
	out, cs, changed := d.Decode("=?ISO-8859-1?Q?Caf=E9_au_lait?= now")
	require.True(t, changed)
	assert.Equal(t, "Café au lait now", out)
	assert.Equal(t, "iso-8859-1", cs)
}

func TestDecodeB(t *testing.T) {
	var d Decoder
	out, cs, changed := d.Decode("Subject =?utf-8?B?44GT44KT44Gr44Gh44Gv?=")
	require.True(t, changed)
	assert.Equal(t, "Subject こんにちは", out)
	assert.Equal(t, "utf-8", cs)
}

func TestDecodePlainUntouched(t *testing.T) {
	var d Decoder
	out, cs, changed := d.Decode("just = text ?= here")
	assert.False(t, changed)
	assert.Equal(t, "just = text ?= here", out)
	assert.Empty(t, cs)
}

func TestAdjacentWordsWhitespace(t *testing.T) {
	var d Decoder
	out, _, _ := d.Decode("=?utf-8?Q?a?= =?utf-8?Q?b?=")
	assert.Equal(t, "ab", out)

	out, _, _ = d.Decode("=?utf-8?Q?a?=  =?utf-8?Q?b?=")
	assert.Equal(t, "a b", out)

	out, _, _ = d.Decode("x =?utf-8?Q?a?= y")
	assert.Equal(t, "x a y", out)
}

func TestUnknownEncoding(t *testing.T) {
	var d Decoder
	out, _, changed := d.Decode("=?utf-8?X?abc?= tail")
	assert.True(t, changed)
	assert.Equal(t, Unknown+" tail", out)
}

func TestMalformedBase64KeptVerbatim(t *testing.T) {
	var d Decoder
	out, _, _ := d.Decode("=?utf-8?B?!!!?=")
	assert.Equal(t, "=?utf-8?B?!!!?=", out)
}

func TestLanguageSuffix(t *testing.T) {
	var d Decoder
	_, cs, _ := d.Decode("=?US-ASCII*EN?Q?Keith_Moore?=")
	assert.Equal(t, "us-ascii", cs)
}

func TestRoundTripIdempotent(t *testing.T) {
	var d Decoder
	for _, text := range []string{"Grüße aus Köln", "日本語のテキスト", "plain ascii", "a_b=c?d"} {
		for _, enc := range []mime.WordEncoder{mime.QEncoding, mime.BEncoding} {
			first, _, _ := d.Decode(enc.Encode("utf-8", text))
			again, _, _ := d.Decode(enc.Encode("utf-8", first))
			assert.Equal(t, text, first)
			assert.Equal(t, first, again)
		}
	}
}
