// Package state holds the planner's in-memory view of the remote API: the
// last fetched parties, RSVPs and guests, and the selected party.
package state

import (
	"sync"

	"partyplanner/internal/model"
)

// Snapshot is an immutable copy of the store taken under its lock.
type Snapshot struct {
	Parties  []model.Party `json:"parties"`
	Rsvps    []model.RSVP  `json:"rsvps"`
	Guests   []model.Guest `json:"guests"`
	Selected *model.Party  `json:"selectedParty,omitempty"`
}

// Store is the application state container. Writers are the planner's
// success paths; readers take a Snapshot.
type Store struct {
	mu       sync.RWMutex
	parties  []model.Party
	rsvps    []model.RSVP
	guests   []model.Guest
	selected *model.Party
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Parties: clone(s.parties),
		Rsvps:   clone(s.rsvps),
		Guests:  clone(s.guests),
	}
	if s.selected != nil {
		p := *s.selected
		snap.Selected = &p
	}
	return snap
}

// SetParties replaces the party list wholesale.
func (s *Store) SetParties(parties []model.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties = clone(parties)
}

// AppendParty adds a newly created party at the end of the list.
func (s *Store) AppendParty(p model.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties = append(s.parties, p)
}

// RemoveParty drops every party with the given id and reports how many were
// removed. The selection is left untouched, even when it has that id.
func (s *Store) RemoveParty(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Party, 0, len(s.parties))
	for _, p := range s.parties {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	removed := len(s.parties) - len(kept)
	s.parties = kept
	return removed
}

// SetSelected replaces the selected party.
func (s *Store) SetSelected(p model.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &p
}

func (s *Store) SetRsvps(rsvps []model.RSVP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rsvps = clone(rsvps)
}

func (s *Store) SetGuests(guests []model.Guest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guests = clone(guests)
}

// clone returns a non-nil copy so snapshots never alias store memory.
func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
