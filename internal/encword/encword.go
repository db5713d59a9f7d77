// Package encword decodes RFC 2047 encoded words in header values.
package encword

import (
	"encoding/base64"
	"strings"
)

// Unknown replaces an encoded word whose encoding is neither Q nor B.
const Unknown = "<unknown>"

// ConvertFunc turns data in charset into UTF-8. ok is false when the charset
// is unknown or the data does not convert.
type ConvertFunc func(charset string, data []byte) (out string, ok bool)

// Decoder decodes encoded words. A nil Convert leaves the decoded bytes in
// their declared charset.
type Decoder struct {
	Convert ConvertFunc
}

type word struct {
	start, end int // byte range in the input, end exclusive
	charset    string
	text       string
	ok         bool // payload decoded
	malformed  bool // known encoding, undecodable payload
}

// Decode replaces every encoded word of s with its decoded text. charset is
// the charset of the last successfully decoded word and changed reports
// whether any word was found.
func (d *Decoder) Decode(s string) (out string, charset string, changed bool) {
	var b strings.Builder
	pos := 0
	prevEnd := -1

	for pos < len(s) {
		w, found := scan(s, pos)
		if !found {
			break
		}
		gap := s[pos:w.start]
		if prevEnd == pos && isBlank(gap) {
			// adjacent encoded words: only the first separating blank goes
			gap = gap[1:]
		}
		b.WriteString(gap)

		if w.ok {
			text := w.text
			if d.Convert != nil {
				if conv, ok := d.Convert(w.charset, []byte(w.text)); ok {
					text = conv
				}
			}
			b.WriteString(text)
			charset = w.charset
		} else if w.malformed {
			b.WriteString(s[w.start:w.end])
		} else {
			b.WriteString(Unknown)
		}
		changed = true
		pos = w.end
		prevEnd = w.end
	}
	if !changed {
		return s, "", false
	}
	b.WriteString(s[pos:])
	return b.String(), charset, true
}

func isBlank(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' && s[i] != '\r' && s[i] != '\n' {
			return false
		}
	}
	return true
}

// scan finds the next =?charset?enc?text?= run at or after from.
func scan(s string, from int) (word, bool) {
	for {
		i := strings.Index(s[from:], "=?")
		if i == -1 {
			return word{}, false
		}
		start := from + i
		rest := s[start+2:]

		q1 := strings.IndexByte(rest, '?')
		if q1 <= 0 || q1+2 >= len(rest) || rest[q1+2] != '?' {
			from = start + 2
			continue
		}
		enc := rest[q1+1]
		payload := rest[q1+3:]
		endRel := strings.Index(payload, "?=")
		if endRel == -1 {
			return word{}, false
		}
		text := payload[:endRel]
		if strings.ContainsAny(text, " \t") {
			from = start + 2
			continue
		}

		w := word{
			start:   start,
			end:     start + 2 + q1 + 3 + endRel + 2,
			charset: cleanCharset(rest[:q1]),
		}
		switch enc {
		case 'q', 'Q':
			w.text, w.ok = decodeQ(text), true
		case 'b', 'B':
			w.text, w.ok = decodeB(text)
			w.malformed = !w.ok
		}
		return w, true
	}
}

// cleanCharset drops an RFC 2231 language suffix.
func cleanCharset(cs string) string {
	if i := strings.IndexByte(cs, '*'); i != -1 {
		cs = cs[:i]
	}
	return strings.ToLower(cs)
}

func decodeQ(text string) string {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '_':
			out = append(out, ' ')
		case c == '=' && i+2 < len(text) && isHex(text[i+1]) && isHex(text[i+2]):
			out = append(out, unhex(text[i+1])<<4|unhex(text[i+2]))
			i += 2
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func decodeB(text string) (string, bool) {
	text = strings.TrimRight(text, "=")
	data, err := base64.RawStdEncoding.DecodeString(text)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
