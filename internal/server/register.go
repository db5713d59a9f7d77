package server

import (
	"mime"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/emurenMRz/mboxarchive/internal/config"
)

// Server serves the mailboxes found in one directory. Mailboxes are parsed
// on first use and again whenever the file changes.
type Server struct {
	path   string
	policy *config.Policy
	mux    *http.ServeMux

	mu        sync.Mutex
	mailboxes map[string]*mailbox
}

// New returns a server for the mailbox files in path.
func New(path string, policy *config.Policy) *Server {
	if policy == nil {
		policy = config.Default()
	}
	s := &Server{
		path:      path,
		policy:    policy,
		mux:       http.NewServeMux(),
		mailboxes: map[string]*mailbox{},
	}
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	s.mux.HandleFunc("/api/mailboxes/", s.handleMailboxRoutes)

	// Serve static files under /static/ (API lives under /api/)
	fs := http.FileServer(http.Dir("static"))
	s.mux.Handle("/static/", http.StripPrefix("/static/", fs))

	// Ensure common MIME types are set (some platforms lack .css/.js by default)
	mime.AddExtensionType(".css", "text/css")
	mime.AddExtensionType(".js", "application/javascript")

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join("static", "index.html"))
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
