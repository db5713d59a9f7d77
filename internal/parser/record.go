package parser

import (
	"time"

	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
)

// Record is one parsed message. It belongs to the record sink once
// committed.
type Record struct {
	Num         int                       `json:"num"`
	MsgID       string                    `json:"msgid"`
	SyntheticID bool                      `json:"syntheticId,omitempty"`
	Date        string                    `json:"date"`
	Time        time.Time                 `json:"time"`
	FromDate    string                    `json:"fromDate,omitempty"`
	Name        string                    `json:"name"`
	Email       string                    `json:"email"`
	To          string                    `json:"to,omitempty"`
	Subject     string                    `json:"subject"`
	IsReply     bool                      `json:"isReply,omitempty"`
	InReplyTo   string                    `json:"inReplyTo,omitempty"`
	Charset     string                    `json:"charset"`
	Header      []mboxheader.HeaderField  `json:"-"`
	Body        []mimetree.Segment        `json:"body"`
	Attachments []*mimetree.AttachmentRef `json:"attachments,omitempty"`
	Deleted     bool                      `json:"deleted,omitempty"`
	Expired     bool                      `json:"expired,omitempty"`
	Annotation  mboxheader.Annotation     `json:"annotation"`
	Warnings    []*Error                  `json:"warnings,omitempty"`
}

// Text returns the text and notice segments of the body joined together.
func (r *Record) Text() string {
	n := 0
	for _, s := range r.Body {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range r.Body {
		switch s.Kind {
		case mimetree.SegmentText, mimetree.SegmentHTML, mimetree.SegmentNotice:
			b = append(b, s.Text...)
		}
	}
	return string(b)
}

// HasWarning reports whether a condition of kind was recovered.
func (r *Record) HasWarning(kind Kind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// RecordHandle identifies a committed record.
type RecordHandle int

// RecordSink receives finished records. ok is false when the record was
// refused, for instance because its message id is already known.
type RecordSink interface {
	Commit(r *Record) (h RecordHandle, ok bool)
}

// Attachment is a decoded part handed to an AttachmentSink.
type Attachment struct {
	Msg         int // number the message will get if committed
	Name        string
	ContentType string
	Charset     string
	Data        []byte
}

// AttachmentSink stores attachments. Cancel removes an attachment that
// ended up unused.
type AttachmentSink interface {
	Store(a *Attachment) (*mimetree.AttachmentRef, error)
	Cancel(ref *mimetree.AttachmentRef) error
}

// Mirror receives every raw input line, for instance to append the input
// to another mailbox. EndMessage is called after the last line of each
// message with its envelope line, empty when there was none.
type Mirror interface {
	WriteLine(raw []byte) error
	EndMessage(envelope string) error
}

// Stats counts what a Parse call went through.
type Stats struct {
	Messages  int `json:"messages"`
	Committed int `json:"committed"`
	Rejected  int `json:"rejected"`
	Parts     int `json:"parts"`
	Pushes    int `json:"pushes"`
	Pops      int `json:"pops"`
}
