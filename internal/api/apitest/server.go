// Package apitest provides an in-memory fake of the party REST API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"partyplanner/internal/model"
)

// Server is a fake party API. Its zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	parties []model.Party
	rsvps   []model.RSVP
	guests  []model.Guest
	nextID  int
	fail    map[string]int
	created []model.PartyDraft
	calls   []string
}

// New starts a fake API and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{nextID: 1, fail: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.listParties)
	mux.HandleFunc("POST /events", s.createParty)
	mux.HandleFunc("GET /events/{id}", s.getParty)
	mux.HandleFunc("DELETE /events/{id}", s.deleteParty)
	mux.HandleFunc("GET /rsvps", s.listRsvps)
	mux.HandleFunc("GET /guests", s.listGuests)
	s.Server = httptest.NewServer(s.intercept(mux))
	t.Cleanup(s.Close)
	return s
}

// Seed replaces the fake's data. nextID continues after the largest party id.
func (s *Server) Seed(parties []model.Party, rsvps []model.RSVP, guests []model.Guest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties = append([]model.Party(nil), parties...)
	s.rsvps = append([]model.RSVP(nil), rsvps...)
	s.guests = append([]model.Guest(nil), guests...)
	s.nextID = 1
	for _, p := range parties {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
}

// SetNextID fixes the id assigned to the next created party.
func (s *Server) SetNextID(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = id
}

// Fail makes every request matching "METHOD /path" answer with status.
// A status of 0 clears the failure.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, route)
		return
	}
	s.fail[route] = status
}

// Created returns the drafts received by POST /events.
func (s *Server) Created() []model.PartyDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PartyDraft(nil), s.created...)
}

// Calls returns "METHOD /path" for every request received, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls = append(s.calls, route)
		status, failing := s.fail[route]
		s.mu.Unlock()
		if failing {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listParties(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, http.StatusOK, nonNil(s.parties))
}

func (s *Server) createParty(w http.ResponseWriter, r *http.Request) {
	var draft model.PartyDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Party{
		ID:          s.nextID,
		Name:        draft.Name,
		Date:        draft.Date,
		Location:    draft.Location,
		Description: draft.Description,
	}
	s.nextID++
	s.parties = append(s.parties, p)
	s.created = append(s.created, draft)
	writeData(w, http.StatusCreated, p)
}

func (s *Server) getParty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad id"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.parties {
		if p.ID == id {
			writeData(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (s *Server) deleteParty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.parties {
		if p.ID == id {
			s.parties = append(s.parties[:i], s.parties[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) listRsvps(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, http.StatusOK, nonNil(s.rsvps))
}

func (s *Server) listGuests(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, http.StatusOK, nonNil(s.guests))
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"success": true, "data": v})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
