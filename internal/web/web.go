package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/csrf"

	"partyplanner/internal/config"
	"partyplanner/internal/ics"
	appLog "partyplanner/internal/log"
	"partyplanner/internal/planner"
	"partyplanner/internal/state"
	"partyplanner/internal/view"
)

// Server serves the planner page and binds its controls to planner
// operations. It is also the planner's renderer: every successful mutation
// rebuilds the page model, and GET / serves the latest one.
type Server struct {
	cfg     *config.Config
	planner *planner.Planner
	mux     *http.ServeMux
	csrfKey []byte

	page atomic.Pointer[view.Page]

	// lastErr is shown once on the next page view when cfg.ShowErrors is set.
	errMu   sync.Mutex
	lastErr string
}

// NewServer constructs a Server. Call Attach before the first planner
// operation so that renders reach the server.
func NewServer(cfg *config.Config) (*Server, error) {
	key, err := cfg.CSRFKeyBytes()
	if err != nil {
		return nil, err
	}
	if key == nil {
		key, err = randomKey()
		if err != nil {
			return nil, err
		}
		appLog.Info("using random CSRF key; set csrf_key to keep forms valid across restarts")
	}

	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		csrfKey: key,
	}
	s.registerRoutes()
	return s, nil
}

// Attach sets the planner whose operations the handlers call.
func (s *Server) Attach(p *planner.Planner) {
	s.planner = p
}

// Render implements planner.Renderer.
func (s *Server) Render(snap state.Snapshot) {
	page := view.Build(snap)
	s.page.Store(&page)
}

// Page returns the most recently rendered page.
func (s *Server) Page() view.Page {
	if p := s.page.Load(); p != nil {
		return *p
	}
	if s.planner != nil {
		return view.Build(s.planner.Store().Snapshot())
	}
	return view.Build(state.Snapshot{})
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	h = csrfProtect(s.csrfKey, s.cfg.Listen)(h)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	h = securityHeaders(h)
	return requestLog(h)
}

// ListenAndServe serves on cfg.Listen until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		appLog.Info("HTTP server stopped")
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /parties/{id}/select", s.handleSelect)
	s.mux.HandleFunc("POST /parties", s.handleCreate)
	s.mux.HandleFunc("POST /parties/{id}/delete", s.handleDelete)
	s.mux.HandleFunc("GET /parties.ics", s.handleCalendar)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := s.Page()
	page.Error = s.takeError()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := view.Render(w, page, view.RenderOptions{CSRFField: csrf.TemplateField(r)}); err != nil {
		internalError(w, err)
	}
}

// handleSelect is bound to the select button of a party row: fetch the
// party and show it.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.planner.SelectParty(r.Context(), id); err != nil {
		s.noteError("Could not load that party.")
	}
	http.Redirect(w, r, "/#selected", http.StatusSeeOther)
}

// handleCreate is bound to the new-party form. The redirect always lands on
// an empty form, whether or not the create succeeded.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		appLog.Error("create party form unreadable", err)
		s.noteError("Could not create the party.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	in := planner.FormInput{
		Name:        r.PostFormValue("name"),
		Date:        r.PostFormValue("date"),
		Location:    r.PostFormValue("location"),
		Description: r.PostFormValue("description"),
	}
	if _, err := s.planner.CreateParty(r.Context(), in); err != nil {
		s.noteError("Could not create the party.")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDelete is bound to the delete control of the selected party.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.planner.DeleteParty(r.Context(), id); err != nil {
		s.noteError("Could not delete the party.")
	}
	http.Redirect(w, r, "/#selected", http.StatusSeeOther)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.Store().Snapshot())
}

// handleCalendar exports the cached parties as an iCalendar feed.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	snap := s.planner.Store().Snapshot()
	body := ics.Export(snap.Parties, ics.ExportOptions{Source: s.cfg.API.Root()})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="parties.ics"`)
	_, _ = w.Write([]byte(body))
}

// handlePreview serves the last page snapshot written by the snapshot command.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	// http.ServeFile answers 404 when no snapshot has been taken yet.
	http.ServeFile(w, r, s.cfg.Snapshot.Path)
}

func (s *Server) noteError(msg string) {
	if !s.cfg.ShowErrors {
		return
	}
	s.errMu.Lock()
	s.lastErr = msg
	s.errMu.Unlock()
}

func (s *Server) takeError() string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	msg := s.lastErr
	s.lastErr = ""
	return msg
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

// internalError logs err and answers with a generic 500.
func internalError(w http.ResponseWriter, err error) {
	appLog.Error("internal error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
