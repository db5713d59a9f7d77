// Package i18n detects and converts the character sets found in mail.
package i18n

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	"github.com/pkg/errors"
	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// UTF8 is the canonical output charset.
const UTF8 = "utf-8"

// InvalidString replaces header text that no charset could make valid.
const InvalidString = "(invalid string)"

func init() {
	// labels seen in the wild that the IANA index does not carry
	charset.RegisterEncoding("ascii", unicode.UTF8)
	charset.RegisterEncoding("us-ascii", unicode.UTF8)
	charset.RegisterEncoding("latin1", charmap.ISO8859_1)
	charset.RegisterEncoding("cp1252", charmap.Windows1252)
	charset.RegisterEncoding("gbk", simplifiedchinese.GBK)
	charset.RegisterEncoding("x-gbk", simplifiedchinese.GBK)
	charset.RegisterEncoding("cp932", japanese.ShiftJIS)
	charset.RegisterEncoding("x-sjis", japanese.ShiftJIS)
	charset.RegisterEncoding("ks_c_5601-1987", korean.EUCKR)
}

// IsASCII reports whether b is 7-bit clean.
func IsASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// IsUTF8 reports whether b is valid UTF-8.
func IsUTF8(b []byte) bool {
	return utf8.Valid(b)
}

// Normalize lowercases a charset label and strips quotes and spaces.
func Normalize(name string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(name), `"'`))
}

// IsUTF8Name reports whether name is a label of UTF-8.
func IsUTF8Name(name string) bool {
	switch Normalize(name) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// IsASCIIName reports whether name is a label of US-ASCII.
func IsASCIIName(name string) bool {
	switch Normalize(name) {
	case "us-ascii", "ascii", "ansi_x3.4-1968":
		return true
	}
	return false
}

// Detect guesses the charset of b. ISO-2022-JP is recognized by its escape
// sequences, anything else is left to the HTML5 sniffing algorithm.
func Detect(b []byte) string {
	if IsASCII(b) {
		if bytes.Contains(b, []byte("\x1b$B")) || bytes.Contains(b, []byte("\x1b$@")) {
			return "iso-2022-jp"
		}
		return "us-ascii"
	}
	if IsUTF8(b) {
		return UTF8
	}
	_, name, _ := htmlcharset.DetermineEncoding(b, "text/plain")
	return Normalize(name)
}

func lookup(name string) (encoding.Encoding, error) {
	if enc, err := ianaindex.MIME.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.Errorf("unknown charset %q", name)
	}
	return enc, nil
}

// Convert converts b from the charset from into UTF-8. The result is
// checked for validity; an error means no usable conversion exists.
func Convert(b []byte, from string) ([]byte, error) {
	from = Normalize(from)
	if from == "" {
		return nil, errors.New("no charset")
	}
	if IsUTF8Name(from) || IsASCIIName(from) {
		if !IsUTF8(b) {
			return nil, errors.Errorf("invalid %s text", from)
		}
		return b, nil
	}

	var out []byte
	r, err := charset.Reader(from, bytes.NewReader(b))
	if err == nil {
		out, err = io.ReadAll(r)
	}
	if err != nil {
		enc, lerr := lookup(from)
		if lerr != nil {
			return nil, errors.Wrapf(err, "convert from %s", from)
		}
		out, _, err = transform.Bytes(enc.NewDecoder(), b)
		if err != nil {
			return nil, errors.Wrapf(err, "convert from %s", from)
		}
	}
	if !IsUTF8(out) {
		return nil, errors.Errorf("conversion from %s produced invalid UTF-8", from)
	}
	return out, nil
}

// Known reports whether a decoder exists for name.
func Known(name string) bool {
	name = Normalize(name)
	if name == "" {
		return false
	}
	if IsUTF8Name(name) || IsASCIIName(name) {
		return true
	}
	if _, err := charset.Reader(name, bytes.NewReader(nil)); err == nil {
		return true
	}
	_, err := lookup(name)
	return err == nil
}
