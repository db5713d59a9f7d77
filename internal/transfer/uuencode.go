package transfer

import (
	"strings"
)

// UUFile is the result of decoding one uuencoded block.
type UUFile struct {
	Name     string
	Mode     string
	Data     []byte
	Complete bool // the "end" trailer was reached
}

// ParseBegin parses a "begin <mode> <name>" line.
func ParseBegin(line string) (mode, name string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "begin ") {
		return "", "", false
	}
	f := strings.SplitN(line[len("begin "):], " ", 2)
	if len(f) != 2 || f[0] == "" {
		return "", "", false
	}
	for _, c := range f[0] {
		if c < '0' || c > '7' {
			return "", "", false
		}
	}
	return f[0], strings.TrimSpace(f[1]), true
}

// DecodeUULine decodes one uuencoded line. The first character gives the
// number of bytes the line carries.
func DecodeUULine(line string) []byte {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil
	}
	n := int(uuval(line[0]))
	if n == 0 {
		return nil
	}
	out := make([]byte, 0, n)
	body := line[1:]
	for i := 0; len(out) < n; i += 4 {
		var q [4]byte
		for j := 0; j < 4; j++ {
			if i+j < len(body) {
				q[j] = uuval(body[i+j])
			}
		}
		if i >= len(body) {
			break
		}
		b := [3]byte{q[0]<<2 | q[1]>>4, q[1]<<4 | q[2]>>2, q[2]<<6 | q[3]}
		for _, c := range b {
			if len(out) == n {
				break
			}
			out = append(out, c)
		}
	}
	return out
}

func uuval(c byte) byte {
	return (c - ' ') & 0x3f
}

// Uudecode reads lines from next until the "end" trailer or until next
// reports no more lines. A leading "begin" line names the file.
func Uudecode(next func() (string, bool)) UUFile {
	var f UUFile
	first := true
	for {
		line, ok := next()
		if !ok {
			return f
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if first {
			first = false
			if mode, name, ok := ParseBegin(trimmed); ok {
				f.Mode, f.Name = mode, name
				continue
			}
		}
		if trimmed == "end" {
			f.Complete = true
			return f
		}
		f.Data = append(f.Data, DecodeUULine(trimmed)...)
	}
}
