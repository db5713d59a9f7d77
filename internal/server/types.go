package server

import (
	"time"

	"github.com/emurenMRz/mboxarchive/internal/mimetree"
	"github.com/emurenMRz/mboxarchive/internal/parser"
)

type Email struct {
	ID      int    `json:"id"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
	Reply   bool   `json:"reply,omitempty"`
	// Timestamp is parsed Date used for sorting. Not exported to JSON.
	Timestamp time.Time `json:"-"`
}

type EmailContent struct {
	MsgID       string             `json:"msgid"`
	InReplyTo   string             `json:"inReplyTo,omitempty"`
	Charset     string             `json:"charset"`
	Body        string             `json:"body"`
	BodyType    string             `json:"bodyType"`
	Segments    []mimetree.Segment `json:"segments"`
	Attachments []Attachment       `json:"attachments"`
	Warnings    []*parser.Error    `json:"warnings,omitempty"`
}

type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Comment     string `json:"comment,omitempty"`
	Inline      bool   `json:"inline,omitempty"`
	URL         string `json:"url"`
}
