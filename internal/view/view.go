// Package view maps a state snapshot to the planner page.
//
// Build is pure: the same snapshot always yields an equal Page. Render turns
// a Page into HTML. Every interactive element carries the URL of the single
// handler it is bound to; handlers never patch markup, they mutate state and
// the page is rebuilt.
package view

import (
	"strconv"

	"partyplanner/internal/model"
	"partyplanner/internal/state"
)

// Placeholder is shown in the detail section when no party is selected.
const Placeholder = "Please select a party to learn more."

// Page is the full display tree.
type Page struct {
	Title   string
	Parties []PartyItem
	// Detail is nil when no party is selected.
	Detail *Detail
	Form   Form
	// Error is the last failure, shown only when error display is enabled.
	Error string
}

// PartyItem is one selectable row of the party list.
type PartyItem struct {
	ID       int
	Name     string
	Selected bool
	// SelectAction is where the row's select button posts.
	SelectAction string
}

// Detail describes the selected party.
type Detail struct {
	ID int
	Name string
	// Date is the timestamp as stored; DisplayDate its calendar-date part.
	Date         string
	DisplayDate  string
	Location     string
	Description  string
	DeleteAction string
	Guests       []GuestItem
}

type GuestItem struct {
	ID   int
	Name string
}

// Form is the new-party form. It is always rendered empty.
type Form struct {
	Action string
	Fields []Field
}

type Field struct {
	Name      string
	Label     string
	Type      string
	Multiline bool
	Required  bool
}

// Build computes the page for snap.
func Build(snap state.Snapshot) Page {
	page := Page{
		Title:   "Party Planner",
		Parties: PartyList(snap.Parties, snap.Selected),
		Form:    NewPartyForm(),
	}
	if snap.Selected != nil {
		page.Detail = SelectedParty(*snap.Selected, snap.Rsvps, snap.Guests)
	}
	return page
}

// PartyList returns one row per party in list order. A row is selected iff
// its id equals the selected party's id.
func PartyList(parties []model.Party, selected *model.Party) []PartyItem {
	items := make([]PartyItem, 0, len(parties))
	for _, p := range parties {
		items = append(items, PartyItem{
			ID:           p.ID,
			Name:         p.Name,
			Selected:     selected != nil && selected.ID == p.ID,
			SelectAction: SelectAction(p.ID),
		})
	}
	return items
}

// SelectedParty builds the detail block for p, including its guest list.
func SelectedParty(p model.Party, rsvps []model.RSVP, guests []model.Guest) *Detail {
	return &Detail{
		ID:           p.ID,
		Name:         p.Name,
		Date:         p.Date,
		DisplayDate:  model.DisplayDate(p.Date),
		Location:     p.Location,
		Description:  p.Description,
		DeleteAction: DeleteAction(p.ID),
		Guests:       GuestList(p.ID, rsvps, guests),
	}
}

// GuestList returns, in guest-list order, the guests that have at least one
// RSVP for partyID.
func GuestList(partyID int, rsvps []model.RSVP, guests []model.Guest) []GuestItem {
	attending := make(map[int]bool)
	for _, r := range rsvps {
		if r.EventID == partyID {
			attending[r.GuestID] = true
		}
	}

	out := make([]GuestItem, 0, len(attending))
	for _, g := range guests {
		if attending[g.ID] {
			out = append(out, GuestItem{ID: g.ID, Name: g.Name})
		}
	}
	return out
}

// NewPartyForm describes the create form: four required fields.
func NewPartyForm() Form {
	return Form{
		Action: CreateAction,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "date", Label: "Date", Type: "date", Required: true},
			{Name: "location", Label: "Location", Type: "text", Required: true},
			{Name: "description", Label: "Description", Multiline: true, Required: true},
		},
	}
}

// CreateAction is where the new-party form posts.
const CreateAction = "/parties"

// SelectAction is where the select control of party id posts. Selection
// changes what every viewer sees, so it is a CSRF-checked POST.
func SelectAction(id int) string {
	return "/parties/" + strconv.Itoa(id) + "/select"
}

// DeleteAction is where the delete control of party id posts.
func DeleteAction(id int) string {
	return "/parties/" + strconv.Itoa(id) + "/delete"
}
