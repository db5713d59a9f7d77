package archive

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/emurenMRz/mboxarchive/internal/mimetree"
	"github.com/emurenMRz/mboxarchive/internal/parser"
)

// attachmentDir is the directory of the attachments of message num.
func attachmentDir(num int) string {
	return fmt.Sprintf("att-%04d", num)
}

// DirAttachments writes attachments below Dir, one directory per message.
// Links are built from URL, which may be relative.
type DirAttachments struct {
	Dir     string
	URL     string
	UseMeta bool // write a .meta file with the content type next to each file
}

func (d *DirAttachments) Store(a *parser.Attachment) (*mimetree.AttachmentRef, error) {
	sub := attachmentDir(a.Msg)
	dir := filepath.Join(d.Dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	file := filepath.Join(dir, a.Name)
	if err := os.WriteFile(file, a.Data, 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing %s", file)
	}

	ref := &mimetree.AttachmentRef{
		Path:        file,
		Link:        path.Join(d.URL, sub, url.PathEscape(a.Name)),
		Name:        a.Name,
		ContentType: a.ContentType,
		Size:        len(a.Data),
	}
	if d.UseMeta {
		meta := filepath.Join(dir, "."+a.Name+".meta")
		if err := os.WriteFile(meta, []byte(metaContent(a)), 0o644); err != nil {
			os.Remove(file)
			return nil, errors.Wrapf(err, "writing %s", meta)
		}
		ref.MetaPath = meta
	}

	grip.Debug(message.Fields{
		"message": "stored attachment",
		"path":    file,
		"size":    len(a.Data),
	})
	return ref, nil
}

func metaContent(a *parser.Attachment) string {
	if a.Charset == "" {
		return fmt.Sprintf("Content-Type: %s\n", a.ContentType)
	}
	return fmt.Sprintf("Content-Type: %s; charset=\"%s\"\n", a.ContentType, a.Charset)
}

// Cancel removes the files of ref, and the message directory once it is
// empty.
func (d *DirAttachments) Cancel(ref *mimetree.AttachmentRef) error {
	for _, p := range []string{ref.Path, ref.MetaPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", p)
		}
	}
	// fails while other attachments remain
	_ = os.Remove(filepath.Dir(ref.Path))
	return nil
}

// MemoryAttachments keeps attachments in memory, addressed by their Path.
type MemoryAttachments struct {
	mu    sync.RWMutex
	files map[string]*parser.Attachment
}

func NewMemoryAttachments() *MemoryAttachments {
	return &MemoryAttachments{files: map[string]*parser.Attachment{}}
}

func (m *MemoryAttachments) Store(a *parser.Attachment) (*mimetree.AttachmentRef, error) {
	key := path.Join(attachmentDir(a.Msg), a.Name)
	m.mu.Lock()
	m.files[key] = a
	m.mu.Unlock()
	return &mimetree.AttachmentRef{
		Path:        key,
		Link:        key,
		Name:        a.Name,
		ContentType: a.ContentType,
		Size:        len(a.Data),
	}, nil
}

func (m *MemoryAttachments) Cancel(ref *mimetree.AttachmentRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[ref.Path]; !ok {
		return errors.Errorf("no attachment %s", ref.Path)
	}
	delete(m.files, ref.Path)
	return nil
}

// Get returns the attachment stored under p.
func (m *MemoryAttachments) Get(p string) (*parser.Attachment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.files[p]
	return a, ok
}

func (m *MemoryAttachments) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
