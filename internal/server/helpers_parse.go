package server

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
	"github.com/emurenMRz/mboxarchive/internal/parser"
)

// statusOf returns the mail client Status header of r, "N" for new mail
// when there is none.
func statusOf(r *parser.Record) string {
	h := mboxheader.NewParsedMailHeaders(r.Header)
	if status, ok := h.GetFieldValue("status"); ok && strings.TrimSpace(status) != "" {
		return strings.TrimSpace(status)
	}
	return "N"
}

func summaryOf(r *parser.Record) Email {
	from := r.Name
	if r.Email != mboxheader.NoEmail && r.Email != r.Name {
		from = fmt.Sprintf("%s <%s>", r.Name, r.Email)
	}
	return Email{
		ID:        r.Num,
		From:      from,
		Date:      r.Date,
		Subject:   r.Subject,
		Status:    statusOf(r),
		Reply:     r.IsReply,
		Timestamp: r.Time,
	}
}

// contentOf renders the body of r as one text. Embedded message headers
// become "Name: value" lines.
func contentOf(r *parser.Record, mailboxName string) EmailContent {
	content := EmailContent{
		MsgID:       r.MsgID,
		InReplyTo:   r.InReplyTo,
		Charset:     r.Charset,
		BodyType:    "text/plain",
		Segments:    r.Body,
		Attachments: []Attachment{},
		Warnings:    r.Warnings,
	}

	var b strings.Builder
	html, text := false, false
	for _, seg := range r.Body {
		switch seg.Kind {
		case mimetree.SegmentHeader:
			fmt.Fprintf(&b, "%s: %s\n", seg.Name, seg.Text)
		case mimetree.SegmentHTML:
			html = true
			b.WriteString(seg.Text)
		case mimetree.SegmentText:
			text = true
			b.WriteString(seg.Text)
		case mimetree.SegmentNotice:
			b.WriteString(seg.Text)
		}
	}
	content.Body = b.String()
	if html && !text {
		content.BodyType = "text/html"
	}

	for _, ref := range r.Attachments {
		content.Attachments = append(content.Attachments, Attachment{
			Name:        ref.Name,
			ContentType: ref.ContentType,
			Size:        ref.Size,
			Comment:     ref.Comment,
			Inline:      ref.Inline,
			URL:         path.Join("/api/mailboxes", url.PathEscape(mailboxName), "emails", fmt.Sprint(r.Num), "attachments", url.PathEscape(ref.Name)),
		})
	}
	return content
}
