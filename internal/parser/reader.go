package parser

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

const (
	defaultMaxLineLength = 4096
	minLineLength        = 16
)

// LineReader hands out the physical lines of a mailbox. Lines longer than
// the maximum are split, the way a fixed line buffer would. Lines can be
// pushed back to be read again; they are not mirrored a second time.
type LineReader struct {
	r       *bufio.Reader
	pending []string
	mirror  Mirror
	err     error
	lines   int
}

// NewLineReader reads from r. max <= 0 selects the default line length.
func NewLineReader(r io.Reader, max int, mirror Mirror) *LineReader {
	if max <= 0 {
		max = defaultMaxLineLength
	}
	if max < minLineLength {
		max = minLineLength
	}
	return &LineReader{r: bufio.NewReaderSize(r, max), mirror: mirror}
}

// Next returns the next line with its terminator. ok is false at the end
// of input or after a read error, see Err.
func (lr *LineReader) Next() (line string, ok bool) {
	if n := len(lr.pending); n > 0 {
		line = lr.pending[n-1]
		lr.pending = lr.pending[:n-1]
		return line, true
	}
	if lr.err != nil {
		return "", false
	}

	// the buffer holds max bytes, so a full buffer is one split line
	chunk, err := lr.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		err = nil
	}
	lr.stop(err)
	if len(chunk) == 0 {
		return "", false
	}
	line = string(chunk)
	lr.lines++
	if lr.mirror != nil {
		if err := lr.mirror.WriteLine([]byte(line)); err != nil && lr.err == nil {
			lr.err = errors.Wrap(err, "mirroring input")
		}
	}
	return line, true
}

func (lr *LineReader) stop(err error) {
	if err != nil && lr.err == nil {
		lr.err = err
	}
}

// Unread pushes line back so that the next call to Next returns it.
func (lr *LineReader) Unread(line string) {
	lr.pending = append(lr.pending, line)
}

// Lines returns the number of physical lines read so far.
func (lr *LineReader) Lines() int {
	return lr.lines
}

// Err returns the read error that ended the input, nil at a clean end.
func (lr *LineReader) Err() error {
	if lr.err == io.EOF {
		return nil
	}
	return lr.err
}
