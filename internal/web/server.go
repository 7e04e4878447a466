// Package web serves the flashlearn HTML pages and the JSON API.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/flashlearn/internal/auth"
	"github.com/conorfennell/flashlearn/internal/generator"
	"github.com/conorfennell/flashlearn/internal/importer"
	"github.com/conorfennell/flashlearn/internal/learn"
	"github.com/conorfennell/flashlearn/internal/storage"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Options holds the dependencies of the HTTP server.
type Options struct {
	DB            *storage.DB
	Auth          *auth.Service
	Learn         *learn.Service
	Generator     *generator.Service
	Importer      *importer.Importer
	RatePerMinute int
	SecureCookies bool
	Logger        *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db            *storage.DB
	auth          *auth.Service
	learn         *learn.Service
	gen           *generator.Service
	importer      *importer.Importer
	limiter       *rateLimiter
	secureCookies bool
	router        *http.ServeMux
	templates     *template.Template
	logger        *slog.Logger
	now           func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(opts Options) (*Server, error) {
	tpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perMinute := opts.RatePerMinute
	if perMinute <= 0 {
		perMinute = 5
	}

	s := &Server{
		db:            opts.DB,
		auth:          opts.Auth,
		learn:         opts.Learn,
		gen:           opts.Generator,
		importer:      opts.Importer,
		limiter:       newRateLimiter(perMinute),
		secureCookies: opts.SecureCookies,
		router:        http.NewServeMux(),
		templates:     tpl,
		logger:        logger,
		now:           time.Now,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logRequests(s.router).ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
	})

	// Pages
	s.router.HandleFunc("GET /register", s.handleRegisterPage())
	s.router.HandleFunc("POST /register", s.handleRegisterSubmit())
	s.router.HandleFunc("GET /login", s.handleLoginPage())
	s.router.HandleFunc("POST /login", s.handleLoginSubmit())
	s.router.HandleFunc("POST /logout", s.handleLogout())

	s.router.Handle("GET /flashcards", s.requirePageUser(s.handleListPage()))
	s.router.Handle("POST /flashcards", s.requirePageUser(s.handleAddCard()))
	s.router.Handle("POST /flashcards/{id}/delete", s.requirePageUser(s.handleDeleteCard()))

	s.router.Handle("GET /flashcards/learn", s.requirePageUser(s.handleLearnStartPage()))
	s.router.Handle("POST /flashcards/learn", s.requirePageUser(s.handleLearnStart()))
	s.router.Handle("GET /flashcards/learn/session", s.requirePageUser(s.handleLearnSession()))
	s.router.Handle("POST /flashcards/learn/check", s.requirePageUser(s.handleLearnCheck()))
	s.router.Handle("GET /flashcards/learn/summary", s.requirePageUser(s.handleLearnSummary()))
	s.router.Handle("POST /flashcards/learn/quit", s.requirePageUser(s.handleLearnQuit()))

	s.router.Handle("GET /sources", s.requirePageUser(s.handleSources()))
	s.router.Handle("POST /sources", s.requirePageUser(s.handleAddSource()))
	s.router.Handle("POST /sync", s.requirePageUser(s.handleSync()))

	// JSON API
	s.router.HandleFunc("POST /api/register", s.handleAPIRegister())
	s.router.HandleFunc("POST /api/login", s.handleAPILogin())
	s.router.Handle("GET /api/flashcards", s.requireAPIUser(s.handleAPIList()))
	s.router.Handle("POST /api/flashcards", s.requireAPIUser(s.handleAPICreate()))
	s.router.Handle("POST /api/flashcards/bulk", s.requireAPIUser(s.handleAPIBulkCreate()))
	s.router.Handle("POST /api/flashcards/generate", s.requireAPIUser(s.handleAPIGenerate()))
	s.router.Handle("GET /api/flashcards/{id}", s.requireAPIUser(s.handleAPIGet()))
	s.router.Handle("PUT /api/flashcards/{id}", s.requireAPIUser(s.handleAPIUpdate()))
	s.router.Handle("DELETE /api/flashcards/{id}", s.requireAPIUser(s.handleAPIDelete()))
	s.router.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.logger, errNotFound)
	})
	return nil
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"dec": func(i int) int { return i - 1 },
}

// render executes a named template, buffering so a failure can still be
// reported as a 500.
func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
