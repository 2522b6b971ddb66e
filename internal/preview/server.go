// Package preview serves a built documentation or marketing website for
// local review.
package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgallion1/docloc/internal/locale"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP preview server.
type Server struct {
	router chi.Router
	root   string
	log    *slog.Logger
}

// NewServer creates a server for the website built into root.
func NewServer(root string, log *slog.Logger) *Server {
	s := &Server{
		root: root,
		log:  log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/locales", s.handleLocales)
	r.Handle("/*", http.FileServer(http.Dir(s.root)))

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Locale describes one published locale.
type Locale struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Path string `json:"path"`
}

func (s *Server) handleLocales(w http.ResponseWriter, r *http.Request) {
	locales, err := Locales(s.root)
	if err != nil {
		s.log.Error("list locales failed", "error", err)
		jsonError(w, "cannot list locales", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"locales": locales,
	})
}

// Locales lists the locales published under root. The base locale lives at
// the root itself when root has an index page.
func Locales(root string) ([]Locale, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var out []Locale
	seen := map[string]bool{}
	for _, e := range entries {
		if !e.IsDir() || !locale.IsCode(e.Name()) {
			continue
		}
		out = append(out, Locale{Code: e.Name(), Name: locale.DisplayName(e.Name()), Path: "/" + e.Name() + "/"})
		seen[e.Name()] = true
	}
	if _, err := os.Stat(filepath.Join(root, "index.html")); err == nil && !seen[locale.Base] {
		out = append(out, Locale{Code: locale.Base, Name: locale.DisplayName(locale.Base), Path: "/"})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
