package parser

import (
	"strings"

	"github.com/emurenMRz/mboxarchive/internal/mimetree"
)

// BoundaryFrame is pushed for every multipart body being read.
type BoundaryFrame struct {
	Boundary string
	Subtype  string // "mixed", "alternative", "digest", ...
	Node     mimetree.PartID
	Snapshot AlternativeState // state to restore when the frame is popped
}

type boundaryStack struct {
	frames []BoundaryFrame
	pushes int
	pops   int
}

func (b *boundaryStack) push(f BoundaryFrame) {
	b.frames = append(b.frames, f)
	b.pushes++
}

func (b *boundaryStack) pop() BoundaryFrame {
	n := len(b.frames)
	f := b.frames[n-1]
	b.frames = b.frames[:n-1]
	b.pops++
	return f
}

func (b *boundaryStack) depth() int {
	return len(b.frames)
}

func (b *boundaryStack) top() *BoundaryFrame {
	if len(b.frames) == 0 {
		return nil
	}
	return &b.frames[len(b.frames)-1]
}

// match looks line up against the open boundaries, innermost first. index
// is the position of the matching frame and end tells a closing boundary.
func (b *boundaryStack) match(line string) (index int, end bool, ok bool) {
	if len(b.frames) == 0 || !strings.HasPrefix(line, "--") || isSignatureSeparator(line) {
		return 0, false, false
	}
	trimmed := strings.TrimRight(line, " \t\r\n")
	for i := len(b.frames) - 1; i >= 0; i-- {
		switch trimmed {
		case "--" + b.frames[i].Boundary:
			return i, false, true
		case "--" + b.frames[i].Boundary + "--":
			return i, true, true
		}
	}
	return 0, false, false
}

func isStartBoundary(boundary, line string) bool {
	return strings.TrimRight(line, " \t\r\n") == "--"+boundary
}

// isSignatureSeparator reports whether line is "--" or "-- " alone.
func isSignatureSeparator(line string) bool {
	l := strings.TrimRight(line, "\r\n")
	return l == "--" || l == "-- "
}

func cleanBoundary(b string) string {
	return strings.TrimRight(b, " \t")
}
