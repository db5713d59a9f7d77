package server

import (
	"net/http"
	"strings"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

func (s *Server) handleMailboxRoutes(w http.ResponseWriter, r *http.Request) {
	grip.Debug(message.Fields{
		"message": "request",
		"method":  r.Method,
		"path":    r.URL.Path,
	})

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/mailboxes/"), "/")
	segmentCount := len(parts)

	if segmentCount == 1 {
		s.mailboxesHandler(w, r)
		return
	}

	if parts[1] == "emails" {
		mboxName := parts[0]
		switch segmentCount {
		case 2:
			s.listEmailsHandler(w, r, mboxName)
			return
		case 3:
			s.emailContentHandler(w, r, mboxName, parts[2])
			return
		case 5:
			if parts[3] == "attachments" {
				s.attachmentHandler(w, r, mboxName, parts[2], parts[4])
				return
			}
		}
	}

	http.NotFound(w, r)
}
