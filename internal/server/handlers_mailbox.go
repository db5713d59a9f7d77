package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"sort"
	"strconv"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"

	"github.com/emurenMRz/mboxarchive/internal/parser"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "could not write response",
		}))
	}
}

// mailboxOr404 loads a mailbox, answering the request itself on failure.
func (s *Server) mailboxOr404(w http.ResponseWriter, r *http.Request, name string) (*mailbox, bool) {
	mb, err := s.loadMailbox(name)
	switch {
	case err == nil:
		return mb, true
	case os.IsNotExist(err):
		http.NotFound(w, r)
	case parser.IsKind(err, parser.StreamOpenFailure):
		http.NotFound(w, r)
	default:
		grip.Error(message.WrapError(err, message.Fields{
			"message": "could not load mailbox",
			"mailbox": name,
		}))
		http.Error(w, "Invalid mailbox name", http.StatusBadRequest)
	}
	return nil, false
}

func (s *Server) recordOr404(w http.ResponseWriter, r *http.Request, mb *mailbox, idStr string) (*parser.Record, bool) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "Invalid email ID", http.StatusBadRequest)
		return nil, false
	}
	for _, rec := range mb.records.Records() {
		if rec.Num == id {
			return rec, true
		}
	}
	http.NotFound(w, r)
	return nil, false
}

func (s *Server) mailboxesHandler(w http.ResponseWriter, _ *http.Request) {
	files, err := os.ReadDir(s.path)
	if err != nil {
		http.Error(w, "Failed to read directory", http.StatusInternalServerError)
		return
	}

	mailboxes := []string{}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		// Files on disk are IMAP-UTF7 encoded; decode to UTF-8 for API response
		name, err := MailboxName(file.Name())
		if err != nil {
			grip.Warning(message.WrapError(err, message.Fields{
				"message": "skipping mailbox file",
				"file":    file.Name(),
			}))
			continue
		}
		mailboxes = append(mailboxes, name)
	}

	writeJSON(w, mailboxes)
}

func (s *Server) listEmailsHandler(w http.ResponseWriter, r *http.Request, mailboxName string) {
	mb, ok := s.mailboxOr404(w, r, mailboxName)
	if !ok {
		return
	}

	emails := []Email{}
	for _, rec := range mb.records.Records() {
		if rec.Deleted || rec.Expired {
			continue
		}
		e := summaryOf(rec)
		if e.Status == "D" {
			continue
		}
		emails = append(emails, e)
	}

	// sort by Timestamp descending (newest first). Zero timestamps go last.
	sort.SliceStable(emails, func(a, b int) bool {
		ta := emails[a].Timestamp
		tb := emails[b].Timestamp
		if ta.Equal(tb) {
			return emails[a].ID < emails[b].ID
		}
		if ta.IsZero() {
			return false
		}
		if tb.IsZero() {
			return true
		}
		return ta.After(tb)
	})

	writeJSON(w, emails)
}

func (s *Server) emailContentHandler(w http.ResponseWriter, r *http.Request, mailboxName, emailID string) {
	mb, ok := s.mailboxOr404(w, r, mailboxName)
	if !ok {
		return
	}
	rec, ok := s.recordOr404(w, r, mb, emailID)
	if !ok {
		return
	}
	writeJSON(w, contentOf(rec, mailboxName))
}

func (s *Server) attachmentHandler(w http.ResponseWriter, r *http.Request, mailboxName, emailID, name string) {
	mb, ok := s.mailboxOr404(w, r, mailboxName)
	if !ok {
		return
	}
	rec, ok := s.recordOr404(w, r, mb, emailID)
	if !ok {
		return
	}
	for _, ref := range rec.Attachments {
		if ref.Name != name {
			continue
		}
		a, ok := mb.attachments.Get(ref.Path)
		if !ok {
			break
		}
		w.Header().Set("Content-Type", a.ContentType)
		if !ref.Inline {
			w.Header().Set("Content-Disposition", "attachment; filename=\""+path.Base(a.Name)+"\"")
		}
		w.Write(a.Data)
		return
	}
	http.NotFound(w, r)
}
