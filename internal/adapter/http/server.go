package adapthttp

import (
	"net/http"

	"trainingdiary/internal/app"

	"go.uber.org/zap"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	entries *app.EntryService
	canvas  *app.CanvasService
	auth    *app.AuthService
	webDir  string
	log     *zap.Logger
}

// New creates a Server wired to the given application services. A nil auth
// service leaves the API open.
func New(es *app.EntryService, cs *app.CanvasService, auth *app.AuthService, webDir string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{entries: es, canvas: cs, auth: auth, webDir: webDir, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "auth": s.auth != nil})
	})

	api.HandleFunc("/statuses", s.handleStatuses)
	api.HandleFunc("/canvas", s.handleCanvas)
	api.HandleFunc("/background.png", s.handleBackground)

	api.HandleFunc("/entries", s.handleEntries)
	api.HandleFunc("/entries/{id}", s.handleEntry)
	api.HandleFunc("/entries/{id}/drawing", s.handleEntryDrawing)

	var apiHandler http.Handler = api
	if s.auth != nil {
		api.HandleFunc("/login", s.handleLogin)
		api.HandleFunc("/logout", s.handleLogout)
		apiHandler = s.authMiddleware(api)
	}

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", apiHandler))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
