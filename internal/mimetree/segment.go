// Package mimetree holds the MIME part tree of one message and turns it
// into the flat body of the archived record.
package mimetree

import "fmt"

// SegmentKind tells how a body segment is to be presented.
type SegmentKind int

const (
	SegmentText       SegmentKind = iota // plain text, one or more lines
	SegmentHTML                          // inline HTML kept as is
	SegmentNotice                        // message generated by the parser
	SegmentHeader                        // header of an embedded message
	SegmentAttachment                    // reference to a stored attachment
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentHTML:
		return "html"
	case SegmentNotice:
		return "notice"
	case SegmentHeader:
		return "header"
	case SegmentAttachment:
		return "attachment"
	default:
		return "text"
	}
}

// MarshalText lets segment kinds appear by name in JSON.
func (k SegmentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SegmentKind) UnmarshalText(text []byte) error {
	for c := SegmentText; c <= SegmentAttachment; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("mimetree: unknown segment kind %q", text)
}

// AttachmentRef describes an attachment handed to an attachment sink.
type AttachmentRef struct {
	Path        string `json:"path"`
	Link        string `json:"link"`
	Comment     string `json:"comment,omitempty"`
	MetaPath    string `json:"metaPath,omitempty"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Inline      bool   `json:"inline,omitempty"`
}

// Segment is one piece of a flattened body.
type Segment struct {
	Kind       SegmentKind    `json:"kind"`
	Name       string         `json:"name,omitempty"` // header name for SegmentHeader
	Text       string         `json:"text,omitempty"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
}

// AttachmentSegment wraps ref in a segment.
func AttachmentSegment(ref *AttachmentRef) Segment {
	return Segment{Kind: SegmentAttachment, Attachment: ref}
}
