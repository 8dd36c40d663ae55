package ics

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"partyplanner/internal/model"
)

func TestExport(t *testing.T) {
	parties := []model.Party{
		{ID: 7, Name: "Gala", Date: "2025-06-01T00:00:00.000Z", Location: "Hall", Description: "Fun"},
		{ID: 8, Name: "Broken", Date: "soon"},
		{ID: 9, Name: "Picnic", Date: "2025-07-04T18:00:00.000Z"},
	}
	out := Export(parties, ExportOptions{
		Source: "https://api.example/api/cohort",
		Now:    time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	})

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("exported calendar does not parse: %v\n%s", err, out)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (bad date skipped)", len(events))
	}

	first := events[0]
	if got := first.Id(); got != EventUID("https://api.example/api/cohort", 7) {
		t.Errorf("UID = %q", got)
	}
	if p := first.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Gala" {
		t.Errorf("summary = %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertyLocation); p == nil || p.Value != "Hall" {
		t.Errorf("location = %+v", p)
	}
	if p := first.GetProperty(ical.ComponentPropertyDtStart); p == nil || p.Value != "20250601" {
		t.Errorf("dtstart = %+v", p)
	}
	if p := events[1].GetProperty(ical.ComponentPropertyLocation); p != nil {
		t.Errorf("empty location should be omitted, got %+v", p)
	}
}

func TestEventUIDStable(t *testing.T) {
	a := EventUID("src", 7)
	if a != EventUID("src", 7) {
		t.Error("UID not deterministic")
	}
	if a == EventUID("src", 8) || a == EventUID("other", 7) {
		t.Error("UID collision")
	}
	if !strings.HasSuffix(a, "@partyplanner") {
		t.Errorf("UID = %q", a)
	}
}
