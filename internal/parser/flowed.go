package parser

import (
	"strings"
)

func quoteLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '>' {
		n++
	}
	return n
}

// reflow joins the soft broken lines of a format=flowed text (RFC 3676).
// With delsp the space of each soft break is removed as well. With
// disableQuoted quoted lines are left as they are.
func reflow(text string, delsp, disableQuoted bool) string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var out strings.Builder
	out.Grow(len(text))
	open := false // the last line written was flowed and is not terminated
	prevQuote := 0

	for _, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		if l == "" {
			if open {
				out.WriteByte('\n')
				open = false
			}
			out.WriteByte('\n')
			prevQuote = 0
			continue
		}

		q := quoteLevel(l)
		content := strings.TrimPrefix(l[q:], " ")
		sig := content == "-- "
		quotedOff := q > 0 && disableQuoted
		continuing := open && q == prevQuote && !sig && !quotedOff
		if open && !continuing {
			out.WriteByte('\n')
		}
		flowed := !sig && !quotedOff && strings.HasSuffix(content, " ")

		if continuing {
			if flowed && delsp {
				content = content[:len(content)-1]
			}
			out.WriteString(content)
		} else {
			line := l
			if q == 0 {
				line = content
			}
			if flowed && delsp {
				line = line[:len(line)-1]
			}
			out.WriteString(line)
		}

		if flowed {
			open = true
		} else {
			out.WriteByte('\n')
			open = false
		}
		prevQuote = q
	}
	if open {
		out.WriteByte('\n')
	}
	return out.String()
}

// dropTrailingBlankLines removes empty and blank lines from the end of a
// text, keeping its last line break.
func dropTrailingBlankLines(text string) string {
	trimmed := strings.TrimRight(text, " \t\r\n")
	if trimmed == "" {
		return ""
	}
	end := len(trimmed)
	if i := strings.IndexByte(text[end:], '\n'); i != -1 {
		end += i + 1
	}
	return text[:end]
}
