package transfer

import (
	"encoding/base64"
)

// Base64Decoder decodes a base64 body line by line. Characters of a group
// split across lines are carried over to the next call.
type Base64Decoder struct {
	carry [4]byte
	n     int
	done  bool // padding seen, ignore the rest of the body
}

// Decode decodes one line and returns the complete bytes it yields.
func (d *Base64Decoder) Decode(line string) []byte {
	var out []byte
	for i := 0; i < len(line) && !d.done; i++ {
		c := line[i]
		if !isBase64(c) {
			continue
		}
		if c == '=' && d.n < 2 {
			// misplaced padding
			continue
		}
		d.carry[d.n] = c
		d.n++
		if d.n < 4 {
			continue
		}
		out = d.flush(out)
	}
	return out
}

func (d *Base64Decoder) flush(out []byte) []byte {
	var buf [3]byte
	n, err := base64.StdEncoding.Decode(buf[:], d.carry[:4])
	if err == nil {
		out = append(out, buf[:n]...)
	}
	if d.carry[3] == '=' {
		d.done = true
	}
	d.n = 0
	return out
}

// Reset drops any carried characters. It must be called whenever a new
// part starts.
func (d *Base64Decoder) Reset() {
	*d = Base64Decoder{}
}

// Pending reports the number of characters waiting for a complete group.
func (d *Base64Decoder) Pending() int {
	return d.n
}

func isBase64(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') ||
		c == '+' || c == '/' || c == '='
}
