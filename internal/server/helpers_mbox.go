package server

import (
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-imap/utf7"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/emurenMRz/mboxarchive/internal/archive"
	"github.com/emurenMRz/mboxarchive/internal/parser"
)

// mailbox is one parsed mailbox file.
type mailbox struct {
	modTime     time.Time
	size        int64
	records     *archive.MemoryStore
	attachments *archive.MemoryAttachments
}

// DiskName maps a UTF-8 mailbox name to its IMAP-UTF7 file name.
func DiskName(name string) (string, error) {
	encoded, err := utf7.Encoding.NewEncoder().String(name)
	if err != nil {
		return "", errors.Wrapf(err, "encoding mailbox name %q", name)
	}
	if encoded != filepath.Base(encoded) || encoded == "." || encoded == ".." {
		return "", errors.Errorf("invalid mailbox name %q", name)
	}
	return encoded, nil
}

// MailboxName maps an IMAP-UTF7 file name back to UTF-8.
func MailboxName(file string) (string, error) {
	decoded, err := utf7.Encoding.NewDecoder().String(file)
	return decoded, errors.Wrapf(err, "decoding mailbox file name %q", file)
}

// loadMailbox returns the parsed mailbox name, parsing the file when it is
// new or changed.
func (s *Server) loadMailbox(name string) (*mailbox, error) {
	file, err := DiskName(name)
	if err != nil {
		return nil, err
	}
	mboxPath := filepath.Join(s.path, file)
	info, err := os.Stat(mboxPath)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mb, ok := s.mailboxes[file]; ok && mb.modTime.Equal(info.ModTime()) && mb.size == info.Size() {
		return mb, nil
	}

	mb := &mailbox{
		modTime:     info.ModTime(),
		size:        info.Size(),
		records:     archive.NewMemoryStore(),
		attachments: archive.NewMemoryAttachments(),
	}
	p := parser.New(s.policy, mb.records)
	p.Attachments = mb.attachments
	stats, err := p.ParseFile(mboxPath)
	if err != nil {
		return nil, err
	}
	grip.Info(message.Fields{
		"message":   "loaded mailbox",
		"mailbox":   name,
		"committed": stats.Committed,
		"rejected":  stats.Rejected,
	})
	s.mailboxes[file] = mb
	return mb, nil
}
