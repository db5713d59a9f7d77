package mimetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) Segment { return Segment{Kind: SegmentText, Text: s} }

func TestClassify(t *testing.T) {
	assert.Equal(t, SkipAll, Classify(false, ContentIgnore, "text/plain"))
	assert.Equal(t, SkipButKeepChildren, Classify(false, ContentBinary, "multipart/mixed"))
	assert.Equal(t, SkipStoredAttachment, Classify(true, ContentBinary, "multipart/mixed"))
	assert.Equal(t, SkipStoredAttachment, Classify(false, ContentBinary, "image/png"))
	assert.Equal(t, SkipStoredAttachment, Classify(false, ContentUnknown, "application/x-foo"))
	assert.Equal(t, Keep, Classify(false, ContentText, "text/plain"))
	assert.Equal(t, Keep, Classify(false, ContentHTML, "text/html"))
}

func TestFlattenOrderAndSkips(t *testing.T) {
	tr := New()
	root := tr.Add(NoPart, Part{ContentType: "multipart/mixed", Skip: SkipButKeepChildren})
	a := tr.Add(root, Part{ContentType: "text/plain"})
	tr.Append(a, text("first\n"))

	alt := tr.Add(root, Part{ContentType: "multipart/alternative", Skip: SkipButKeepChildren})
	plain := tr.Add(alt, Part{ContentType: "text/plain", Alternative: true})
	tr.Append(plain, text("plain\n"))
	html := tr.Add(alt, Part{ContentType: "text/html", Alternative: true, Skip: SkipAll})
	tr.Append(html, Segment{Kind: SegmentHTML, Text: "<p>html</p>"})

	ref := &AttachmentRef{Name: "x.png"}
	tr.Add(root, Part{ContentType: "image/png", Skip: SkipStoredAttachment, Attachment: ref})

	last := tr.Add(root, Part{ContentType: "text/plain"})
	tr.Append(last, text("last\n"))

	require.Equal(t, root, tr.Root())
	out := tr.Flatten()
	require.Len(t, out, 4)
	assert.Equal(t, "first\n", out[0].Text)
	assert.Equal(t, "plain\n", out[1].Text)
	assert.Equal(t, SegmentAttachment, out[2].Kind)
	assert.Same(t, ref, out[2].Attachment)
	assert.Equal(t, "last\n", out[3].Text)

	assert.Panics(t, func() { tr.Flatten() })
}

func TestSkipAllDropsSubtree(t *testing.T) {
	tr := New()
	root := tr.Add(NoPart, Part{ContentType: "multipart/mixed", Skip: SkipButKeepChildren})
	gone := tr.Add(root, Part{ContentType: "multipart/related", Skip: SkipAll})
	child := tr.Add(gone, Part{ContentType: "text/plain"})
	tr.Append(child, text("hidden"))

	assert.Empty(t, tr.Flatten())
}

func TestMoveTransfersOwnership(t *testing.T) {
	tr := New()
	a := tr.Add(NoPart, Part{})
	b := tr.Add(a, Part{})
	tr.Append(b, text("x"))
	tr.Move(b, a)

	assert.Empty(t, tr.Part(b).Segments)
	assert.Len(t, tr.Part(a).Segments, 1)
}

func TestWalkAndAttachments(t *testing.T) {
	tr := New()
	root := tr.Add(NoPart, Part{})
	c1 := tr.Add(root, Part{Attachment: &AttachmentRef{Name: "a"}})
	c2 := tr.Add(c1, Part{})
	tr.Append(c2, AttachmentSegment(&AttachmentRef{Name: "b"}))
	c3 := tr.Add(root, Part{})

	var order []PartID
	tr.Walk(root, func(id PartID, _ *Part) { order = append(order, id) })
	assert.Equal(t, []PartID{root, c1, c2, c3}, order)

	refs := tr.Attachments(c1)
	require.Len(t, refs, 2)
	assert.Equal(t, "a", refs[0].Name)
	assert.Equal(t, "b", refs[1].Name)

	assert.True(t, tr.IsAncestor(root, c2))
	assert.False(t, tr.IsAncestor(c3, c2))
	assert.Equal(t, c1, tr.Parent(c2))
}

func TestSegmentKindUnmarshal(t *testing.T) {
	var k SegmentKind
	require.NoError(t, k.UnmarshalText([]byte("attachment")))
	assert.Equal(t, SegmentAttachment, k)
	assert.Error(t, k.UnmarshalText([]byte("bogus")))
}
