package parser

import (
	"fmt"
	"mime"
	"strings"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"

	"github.com/emurenMRz/mboxarchive/internal/mimetree"
)

var extensions = map[string]string{
	"text/plain":               ".txt",
	"text/html":                ".html",
	"text/enriched":            ".txt",
	"image/jpeg":               ".jpg",
	"image/png":                ".png",
	"image/gif":                ".gif",
	"application/pdf":          ".pdf",
	"application/octet-stream": ".bin",
	"message/rfc822":           ".eml",
}

func extension(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// safeName keeps the last path element of name and replaces anything
// outside [A-Za-z0-9._+-] with an underscore.
func safeName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i != -1 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-', r == '+':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

// attachmentName returns a name not used yet in the current message.
func (s *session) attachmentName(name, contentType string) string {
	name = safeName(name)
	if name == "" {
		name = fmt.Sprintf("part%d%s", s.parts, extension(contentType))
	}
	n := s.names[name]
	s.names[name] = n + 1
	if n > 0 {
		name = fmt.Sprintf("%02d-%s", n, name)
	}
	return name
}

func (s *session) store(data []byte, name, contentType, charset string) *mimetree.AttachmentRef {
	a := &Attachment{
		Msg:         s.p.num,
		Name:        s.attachmentName(name, contentType),
		ContentType: contentType,
		Charset:     charset,
		Data:        data,
	}
	ref, err := s.p.attachments().Store(a)
	if err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "could not store attachment",
			"msg":     s.p.num,
			"name":    a.Name,
		}))
		return nil
	}
	s.stored = append(s.stored, ref)
	return ref
}

// cancel gives up an attachment stored for this message.
func (s *session) cancel(ref *mimetree.AttachmentRef) {
	for i, r := range s.stored {
		if r == ref {
			s.stored = append(s.stored[:i], s.stored[i+1:]...)
			break
		}
	}
	if err := s.p.attachments().Cancel(ref); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "could not remove attachment",
			"msg":     s.p.num,
			"path":    ref.Path,
		}))
	}
}

// discardAttachment stands in when no attachment sink is configured. The
// record still lists the attachment.
type discardAttachment struct{}

func (discardAttachment) Store(a *Attachment) (*mimetree.AttachmentRef, error) {
	return &mimetree.AttachmentRef{Name: a.Name, ContentType: a.ContentType, Size: len(a.Data)}, nil
}

func (discardAttachment) Cancel(*mimetree.AttachmentRef) error { return nil }
