package mboxheader

import (
	"strings"
)

const maxHeaderLineLength = 78

// FormatFields renders fields one per line, folding long values at
// whitespace. Invalid fields are written back as they were read.
func FormatFields(fields []HeaderField) string {
	var folded strings.Builder

	for _, field := range fields {
		if field.Invalid || field.Name == "" {
			folded.WriteString(field.Raw + "\n")
			continue
		}
		value := field.Value
		if !field.Decoded && value == "" {
			value = RawValue(field.Raw)
		}
		writeFolded(&folded, field.Name+": ", value)
	}

	return folded.String()
}

func writeFolded(b *strings.Builder, prefix, value string) {
	words := strings.Fields(value)
	line := prefix
	lineLen := len(prefix)
	first := true
	for _, w := range words {
		switch {
		case first:
			line += w
			lineLen += len(w)
			first = false
		case lineLen+1+len(w) > maxHeaderLineLength:
			b.WriteString(line + "\n")
			line = "\t" + w
			lineLen = 1 + len(w)
		default:
			line += " " + w
			lineLen += 1 + len(w)
		}
	}
	b.WriteString(line + "\n")
}
