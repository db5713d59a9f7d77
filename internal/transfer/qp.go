package transfer

import "strings"

// DecodeQPLine decodes one physical quoted-printable line. The result ends
// in "\n" unless the line ends in a soft break, in which case soft is true
// and the logical line continues on the next physical line.
func DecodeQPLine(line string) (out []byte, soft bool) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, "=") {
		soft = true
		line = trimmed[:len(trimmed)-1]
	}

	out = make([]byte, 0, len(line)+1)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '=' {
			out = append(out, c)
			continue
		}
		switch {
		case i+2 < len(line) && isHex(line[i+1]) && isHex(line[i+2]):
			out = append(out, unhex(line[i+1])<<4|unhex(line[i+2]))
			i += 2
		case i+1 < len(line) && line[i+1] == '=':
			// "==" is a literal equal sign written by broken encoders
			out = append(out, '=')
			i++
		default:
			out = append(out, '=')
		}
	}
	if !soft {
		out = append(out, '\n')
	}
	return out, soft
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
