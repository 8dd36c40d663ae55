package state

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"partyplanner/internal/model"
)

func parties(ids ...int) []model.Party {
	out := make([]model.Party, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Party{ID: id, Name: "p"})
	}
	return out
}

func TestEmptySnapshot(t *testing.T) {
	snap := NewStore().Snapshot()
	if snap.Parties == nil || snap.Rsvps == nil || snap.Guests == nil {
		t.Errorf("empty snapshot lists should be non-nil: %+v", snap)
	}
	if snap.Selected != nil {
		t.Errorf("Selected = %+v, want nil", snap.Selected)
	}
}

func TestPartyMutations(t *testing.T) {
	s := NewStore()
	s.SetParties(parties(3, 1, 2))
	s.AppendParty(model.Party{ID: 7, Name: "Gala"})

	got := s.Snapshot().Parties
	want := append(parties(3, 1, 2), model.Party{ID: 7, Name: "Gala"})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("after append (-want +got):\n%s", diff)
	}

	if n := s.RemoveParty(1); n != 1 {
		t.Errorf("RemoveParty(1) = %d", n)
	}
	if n := s.RemoveParty(42); n != 0 {
		t.Errorf("RemoveParty(42) = %d", n)
	}
	want = append(parties(3, 2), model.Party{ID: 7, Name: "Gala"})
	if diff := cmp.Diff(want, s.Snapshot().Parties); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}
}

func TestRemoveKeepsStaleSelection(t *testing.T) {
	s := NewStore()
	s.SetParties(parties(7))
	s.SetSelected(model.Party{ID: 7, Name: "Gala"})

	s.RemoveParty(7)

	snap := s.Snapshot()
	if len(snap.Parties) != 0 {
		t.Fatalf("parties = %+v", snap.Parties)
	}
	if snap.Selected == nil || snap.Selected.ID != 7 {
		t.Errorf("selection should survive delete, got %+v", snap.Selected)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	in := parties(1, 2)
	s.SetParties(in)
	in[0].Name = "mutated by caller"
	s.SetSelected(model.Party{ID: 1, Name: "one"})

	snap := s.Snapshot()
	snap.Parties[1].Name = "mutated by reader"
	snap.Selected.Name = "mutated by reader"

	again := s.Snapshot()
	if again.Parties[0].Name != "p" || again.Parties[1].Name != "p" {
		t.Errorf("store aliased caller memory: %+v", again.Parties)
	}
	if again.Selected.Name != "one" {
		t.Errorf("selection aliased: %+v", again.Selected)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			s.AppendParty(model.Party{ID: id})
			s.SetGuests([]model.Guest{{ID: id}})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if got := len(s.Snapshot().Parties); got != 50 {
		t.Errorf("parties = %d, want 50", got)
	}
}
