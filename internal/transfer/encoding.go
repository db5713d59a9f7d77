// Package transfer implements the content-transfer-encodings of MIME bodies.
package transfer

import "strings"

// Encoding is a Content-Transfer-Encoding.
type Encoding int

const (
	Identity Encoding = iota // 7bit, 8bit, binary or absent
	QuotedPrintable
	Base64
	Uuencode
)

func (e Encoding) String() string {
	switch e {
	case QuotedPrintable:
		return "quoted-printable"
	case Base64:
		return "base64"
	case Uuencode:
		return "x-uuencode"
	default:
		return "8bit"
	}
}

// ParseEncoding maps a header value to an Encoding. known is false for a
// value that names some other encoding; such bodies are read as Identity.
func ParseEncoding(value string) (enc Encoding, known bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexAny(v, " \t;("); i != -1 {
		v = v[:i]
	}
	switch {
	case v == "":
		return Identity, true
	case v == "quoted-printable":
		return QuotedPrintable, true
	case v == "base64":
		return Base64, true
	case v == "7bit", v == "8bit", v == "binary":
		return Identity, true
	case strings.HasPrefix(v, "x-uue"):
		return Uuencode, true
	}
	return Identity, false
}

// IsPlain reports whether value is one of the identity encodings that a
// message/rfc822 part may legally carry.
func IsPlain(value string) bool {
	enc, known := ParseEncoding(value)
	return known && enc == Identity
}
