package i18n

import (
	"bytes"
	"strings"
)

// ResolveHeader turns a decoded header value into valid UTF-8. ASCII and
// UTF-8 text pass through. Otherwise the declared charset, the hint and a
// detected charset are tried in that order; the first that converts
// cleanly wins. ok is false when the value had to be replaced by
// InvalidString.
func ResolveHeader(value []byte, declared, hint string) (out string, used string, ok bool) {
	if IsASCII(value) && !bytes.ContainsRune(value, 0x1b) {
		return string(value), "", true
	}
	if IsUTF8(value) {
		return string(value), UTF8, true
	}
	for _, cs := range []string{declared, hint, Detect(value)} {
		if cs == "" {
			continue
		}
		if conv, err := Convert(value, cs); err == nil {
			return string(conv), Normalize(cs), true
		}
	}
	return InvalidString, "", false
}

// ResolveBody converts a body text into UTF-8. The declared charset is
// tried first; text that is already valid UTF-8 is kept; otherwise the
// fallback charset and then a detected one are tried.
func ResolveBody(value []byte, declared, fallback string) (string, bool) {
	if IsASCII(value) && !bytes.ContainsRune(value, 0x1b) {
		return string(value), true
	}
	if declared != "" && !IsUTF8Name(declared) {
		if conv, err := Convert(value, declared); err == nil {
			return string(conv), true
		}
	}
	if IsUTF8(value) {
		return string(value), true
	}
	for _, cs := range []string{fallback, Detect(value)} {
		if cs == "" {
			continue
		}
		if conv, err := Convert(value, cs); err == nil {
			return string(conv), true
		}
	}
	return strings.ToValidUTF8(string(value), "\uFFFD"), false
}

// UpgradeASCII returns UTF8 for a US-ASCII label when upgrade is set.
func UpgradeASCII(name string, upgrade bool) string {
	if upgrade && IsASCIIName(name) {
		return UTF8
	}
	return name
}
