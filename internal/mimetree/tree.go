package mimetree

import (
	"strings"
)

// PartID addresses a Part inside its Tree.
type PartID int

// NoPart is the PartID of nothing.
const NoPart PartID = -1

// Skip is the flatten time classification of a Part.
type Skip int

const (
	Keep Skip = iota
	SkipAll
	SkipButKeepChildren
	SkipStoredAttachment
)

func (s Skip) String() string {
	switch s {
	case SkipAll:
		return "skip-all"
	case SkipButKeepChildren:
		return "skip-keep-children"
	case SkipStoredAttachment:
		return "skip-stored-attachment"
	default:
		return "keep"
	}
}

// Content is what a part was found to contain.
type Content int

const (
	ContentText Content = iota
	ContentHTML
	ContentBinary
	ContentUnknown
	ContentIgnore
)

// Classify decides how a part contributes to the flattened body.
// fileCreated reports whether an attachment was stored for it.
func Classify(fileCreated bool, content Content, contentType string) Skip {
	switch {
	case content == ContentIgnore:
		return SkipAll
	case strings.HasPrefix(strings.ToLower(contentType), "multipart/") &&
		content == ContentBinary && !fileCreated:
		return SkipButKeepChildren
	case content == ContentBinary || content == ContentUnknown:
		return SkipStoredAttachment
	}
	return Keep
}

// Part is one node of the tree.
type Part struct {
	ContentType string
	Charset     string
	Encoding    string
	Boundary    string // boundary of the multipart that introduced the part
	Skip        Skip
	Alternative bool // a branch of a multipart/alternative
	Segments    []Segment
	Children    []PartID
	Parent      PartID
	Attachment  *AttachmentRef
}

// Tree is an arena of parts. The first part added without a parent is the
// root.
type Tree struct {
	parts    []Part
	root     PartID
	released bool
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: NoPart}
}

// Root returns the root part, or NoPart.
func (t *Tree) Root() PartID {
	return t.root
}

// Len returns the number of parts ever added.
func (t *Tree) Len() int {
	return len(t.parts)
}

// Add appends p as the last child of parent and returns its id.
func (t *Tree) Add(parent PartID, p Part) PartID {
	id := PartID(len(t.parts))
	p.Parent = parent
	p.Children = nil
	t.parts = append(t.parts, p)
	if parent == NoPart {
		if t.root == NoPart {
			t.root = id
		}
	} else {
		t.parts[parent].Children = append(t.parts[parent].Children, id)
	}
	return id
}

// Part returns the part id. The pointer is valid until the next Add.
func (t *Tree) Part(id PartID) *Part {
	return &t.parts[id]
}

// Append adds seg to the body of part id.
func (t *Tree) Append(id PartID, seg Segment) {
	p := &t.parts[id]
	p.Segments = append(p.Segments, seg)
}

// Move transfers all body segments of from to the end of to.
func (t *Tree) Move(from, to PartID) {
	if from == to {
		return
	}
	src := &t.parts[from]
	dst := &t.parts[to]
	dst.Segments = append(dst.Segments, src.Segments...)
	src.Segments = nil
}

// Parent returns the parent of id.
func (t *Tree) Parent(id PartID) PartID {
	return t.parts[id].Parent
}

// IsAncestor reports whether a is id or one of its ancestors.
func (t *Tree) IsAncestor(a, id PartID) bool {
	for id != NoPart {
		if id == a {
			return true
		}
		id = t.parts[id].Parent
	}
	return false
}

// Walk visits id and its descendants depth first in document order.
func (t *Tree) Walk(id PartID, fn func(PartID, *Part)) {
	if id == NoPart {
		return
	}
	stack := []PartID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p := &t.parts[cur]
		fn(cur, p)
		for i := len(p.Children) - 1; i >= 0; i-- {
			stack = append(stack, p.Children[i])
		}
	}
}

// Attachments returns the stored attachments of id and its descendants.
func (t *Tree) Attachments(id PartID) []*AttachmentRef {
	var refs []*AttachmentRef
	t.Walk(id, func(_ PartID, p *Part) {
		if p.Attachment != nil {
			refs = append(refs, p.Attachment)
		}
		for _, s := range p.Segments {
			if s.Attachment != nil && s.Attachment != p.Attachment {
				refs = append(refs, s.Attachment)
			}
		}
	})
	return refs
}

// Flatten emits the body of the tree: Keep parts give their segments,
// stored attachments give a reference, SkipAll subtrees give nothing and
// SkipButKeepChildren parts give only their children. The tree is released
// afterwards and must not be used again.
func (t *Tree) Flatten() []Segment {
	if t.released {
		panic("mimetree: Flatten on a released tree")
	}
	var out []Segment
	var walk func(id PartID)
	walk = func(id PartID) {
		p := &t.parts[id]
		switch p.Skip {
		case SkipAll:
			return
		case SkipStoredAttachment:
			if p.Attachment != nil {
				out = append(out, AttachmentSegment(p.Attachment))
			}
		case Keep:
			out = append(out, p.Segments...)
		}
		for _, c := range p.Children {
			walk(c)
		}
	}
	if t.root != NoPart {
		walk(t.root)
	}
	t.parts = nil
	t.root = NoPart
	t.released = true
	return out
}
