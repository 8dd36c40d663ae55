package view

import (
	"bytes"
	"html/template"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"partyplanner/internal/model"
	"partyplanner/internal/state"
)

var gala = model.Party{
	ID:          7,
	Name:        "Gala",
	Date:        "2025-06-01T00:00:00.000Z",
	Location:    "Hall",
	Description: "Fun",
}

func render(t *testing.T, page Page) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, page, RenderOptions{CSRFField: template.HTML(`<input type="hidden" name="gorilla.csrf.Token" value="tok">`)}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestBuildEmptyState(t *testing.T) {
	page := Build(state.NewStore().Snapshot())

	if len(page.Parties) != 0 {
		t.Errorf("Parties = %+v", page.Parties)
	}
	if page.Detail != nil {
		t.Errorf("Detail = %+v, want nil", page.Detail)
	}
	if diff := cmp.Diff(NewPartyForm(), page.Form); diff != "" {
		t.Errorf("form (-want +got):\n%s", diff)
	}

	html := render(t, page)
	for _, want := range []string{
		Placeholder,
		`<ul class="parties">`,
		`action="/parties"`,
		`<input name="name" type="text" required>`,
		`<input name="date" type="date" required>`,
		`<textarea name="description" required></textarea>`,
		`data-ready="true"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
	if strings.Contains(html, "Delete Party") {
		t.Error("delete control rendered without a selection")
	}
}

func TestPartyListMarksSelection(t *testing.T) {
	list := []model.Party{{ID: 3, Name: "Picnic"}, gala, {ID: 9, Name: "Wake"}}
	// Selection is id-equal only; other fields may differ from the list entry.
	selected := model.Party{ID: 7, Name: "Gala (refetched)"}

	got := PartyList(list, &selected)
	want := []PartyItem{
		{ID: 3, Name: "Picnic", SelectAction: "/parties/3/select"},
		{ID: 7, Name: "Gala", Selected: true, SelectAction: "/parties/7/select"},
		{ID: 9, Name: "Wake", SelectAction: "/parties/9/select"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PartyList (-want +got):\n%s", diff)
	}

	if got := PartyList(list, nil); got[1].Selected {
		t.Error("no row should be selected without a selection")
	}
}

func TestGuestListJoin(t *testing.T) {
	rsvps := []model.RSVP{
		{ID: 1, GuestID: 1, EventID: 7},
		{ID: 2, GuestID: 3, EventID: 8},
		{ID: 3, GuestID: 4, EventID: 7},
		{ID: 4, GuestID: 4, EventID: 7},
		{ID: 5, GuestID: 99, EventID: 7},
	}
	guests := []model.Guest{{ID: 4, Name: "Dee"}, {ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}, {ID: 3, Name: "Cy"}}

	got := GuestList(7, rsvps, guests)
	want := []GuestItem{{ID: 4, Name: "Dee"}, {ID: 1, Name: "Ann"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GuestList (-want +got):\n%s", diff)
	}

	if got := GuestList(42, rsvps, guests); len(got) != 0 {
		t.Errorf("no RSVPs for 42, got %+v", got)
	}
}

func TestSelectedPartyScenario(t *testing.T) {
	snap := state.Snapshot{
		Parties:  []model.Party{gala},
		Rsvps:    []model.RSVP{{GuestID: 1, EventID: 7}},
		Guests:   []model.Guest{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}},
		Selected: &gala,
	}

	page := Build(snap)
	want := &Detail{
		ID:           7,
		Name:         "Gala",
		Date:         "2025-06-01T00:00:00.000Z",
		DisplayDate:  "2025-06-01",
		Location:     "Hall",
		Description:  "Fun",
		DeleteAction: "/parties/7/delete",
		Guests:       []GuestItem{{ID: 1, Name: "Ann"}},
	}
	if diff := cmp.Diff(want, page.Detail); diff != "" {
		t.Errorf("Detail (-want +got):\n%s", diff)
	}

	html := render(t, page)
	for _, want := range []string{
		`<li class="selected" data-party-id="7">`,
		`<form method="post" action="/parties/7/select" class="select-party"><input type="hidden" name="gorilla.csrf.Token" value="tok"><button type="submit">Gala</button></form>`,
		`<h3>Gala #7</h3>`,
		`<time datetime="2025-06-01T00:00:00.000Z">2025-06-01</time>`,
		`<address>Hall</address>`,
		`<p>Fun</p>`,
		`action="/parties/7/delete"`,
		`<li data-guest-id="1">Ann</li>`,
		`name="gorilla.csrf.Token"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q\n%s", want, html)
		}
	}
	if strings.Contains(html, "Bob") {
		t.Error("Bob has no RSVP for party 7")
	}
	if strings.Contains(html, Placeholder) {
		t.Error("placeholder rendered alongside a selection")
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	snap := state.Snapshot{
		Parties:  []model.Party{gala, {ID: 8, Name: "After"}},
		Rsvps:    []model.RSVP{{GuestID: 1, EventID: 7}},
		Guests:   []model.Guest{{ID: 1, Name: "Ann"}},
		Selected: &gala,
	}
	first := Build(snap)
	second := Build(snap)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Build not idempotent:\n%s", diff)
	}
	if render(t, first) != render(t, second) {
		t.Error("Render not idempotent")
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	evil := model.Party{
		ID:          1,
		Name:        `<script>alert(1)</script>`,
		Date:        "2025-01-01T00:00:00.000Z",
		Location:    `<b>loud</b>`,
		Description: "**bold** <img src=x onerror=alert(1)>",
	}
	html := render(t, Build(state.Snapshot{Parties: []model.Party{evil}, Selected: &evil}))

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("party name not escaped")
	}
	if strings.Contains(html, "<b>loud</b>") {
		t.Error("location not escaped")
	}
	if strings.Contains(html, "<img") {
		t.Error("raw HTML in description should not pass through markdown")
	}
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Error("markdown emphasis not rendered")
	}
}

func TestRenderShowsError(t *testing.T) {
	page := Build(state.NewStore().Snapshot())
	page.Error = "Could not create party."
	if html := render(t, page); !strings.Contains(html, `role="alert">Could not create party.</p>`) {
		t.Error("error banner missing")
	}
}
