// Package planner binds user interactions to API calls. Each operation makes
// one round trip, applies the result to the state store on success and then
// re-renders synchronously. Failures are logged, leave state untouched and
// are returned to the caller.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	appLog "partyplanner/internal/log"
	"partyplanner/internal/model"
	"partyplanner/internal/state"
)

// API is the subset of api.Client the planner needs.
type API interface {
	ListParties(ctx context.Context) ([]model.Party, error)
	CreateParty(ctx context.Context, draft model.PartyDraft) (model.Party, error)
	GetParty(ctx context.Context, id int) (model.Party, error)
	ListRsvps(ctx context.Context) ([]model.RSVP, error)
	ListGuests(ctx context.Context) ([]model.Guest, error)
	DeleteParty(ctx context.Context, id int) error
}

// Renderer receives the full state after every successful mutation.
type Renderer interface {
	Render(snap state.Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(snap state.Snapshot)

func (f RendererFunc) Render(snap state.Snapshot) { f(snap) }

// FormInput is the raw new-party form as submitted.
type FormInput struct {
	Name        string
	Date        string
	Location    string
	Description string
}

// Planner owns the API client, the state store and the render hook.
type Planner struct {
	api      API
	store    *state.Store
	renderer Renderer

	// renderMu makes snapshot-then-render one step, so renders reach the
	// renderer in the order their snapshots were taken and the last one
	// delivered always reflects every completed mutation.
	renderMu sync.Mutex
}

// New creates a Planner. A nil renderer is allowed; renders become no-ops.
func New(api API, store *state.Store, renderer Renderer) *Planner {
	if renderer == nil {
		renderer = RendererFunc(func(state.Snapshot) {})
	}
	return &Planner{api: api, store: store, renderer: renderer}
}

// Store returns the state container the planner writes to.
func (p *Planner) Store() *state.Store { return p.store }

// Render re-renders the current state.
func (p *Planner) Render() {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()
	p.renderer.Render(p.store.Snapshot())
}

func (p *Planner) LoadParties(ctx context.Context) error {
	parties, err := p.api.ListParties(ctx)
	if err != nil {
		appLog.Error("load parties failed", err)
		return err
	}
	p.store.SetParties(parties)
	appLog.Info("parties loaded", "count", len(parties))
	p.Render()
	return nil
}

func (p *Planner) LoadRsvps(ctx context.Context) error {
	rsvps, err := p.api.ListRsvps(ctx)
	if err != nil {
		appLog.Error("load rsvps failed", err)
		return err
	}
	p.store.SetRsvps(rsvps)
	appLog.Info("rsvps loaded", "count", len(rsvps))
	p.Render()
	return nil
}

func (p *Planner) LoadGuests(ctx context.Context) error {
	guests, err := p.api.ListGuests(ctx)
	if err != nil {
		appLog.Error("load guests failed", err)
		return err
	}
	p.store.SetGuests(guests)
	appLog.Info("guests loaded", "count", len(guests))
	p.Render()
	return nil
}

// CreateParty normalizes the form date to a full ISO-8601 instant, creates
// the party and appends the server's copy to the list.
func (p *Planner) CreateParty(ctx context.Context, in FormInput) (model.Party, error) {
	draft, err := in.Draft()
	if err != nil {
		appLog.Error("create party rejected", err, "name", in.Name)
		return model.Party{}, err
	}

	party, err := p.api.CreateParty(ctx, draft)
	if err != nil {
		appLog.Error("create party failed", err, "name", draft.Name)
		return model.Party{}, err
	}
	p.store.AppendParty(party)
	appLog.Info("party created", "id", party.ID, "name", party.Name)
	p.Render()
	return party, nil
}

// SelectParty fetches party id and makes it the selection. On failure the
// previous selection is kept.
func (p *Planner) SelectParty(ctx context.Context, id int) (model.Party, error) {
	party, err := p.api.GetParty(ctx, id)
	if err != nil {
		appLog.Error("select party failed", err, "id", id)
		return model.Party{}, err
	}
	p.store.SetSelected(party)
	appLog.Debug("party selected", "id", party.ID)
	p.Render()
	return party, nil
}

// DeleteParty deletes party id remotely and drops it from the list. The
// selection is not cleared, even when it is the deleted party.
func (p *Planner) DeleteParty(ctx context.Context, id int) error {
	if err := p.api.DeleteParty(ctx, id); err != nil {
		appLog.Error("delete party failed", err, "id", id)
		return err
	}
	removed := p.store.RemoveParty(id)
	appLog.Info("party deleted", "id", id, "removed", removed)
	p.Render()
	return nil
}

// Bootstrap loads parties, then RSVPs, then guests, each awaited before the
// next, and renders once more at the end. A failed fetch does not stop the
// ones after it; the joined errors are returned.
func (p *Planner) Bootstrap(ctx context.Context) error {
	var errs []error
	for _, load := range []func(context.Context) error{p.LoadParties, p.LoadRsvps, p.LoadGuests} {
		if err := load(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.Render()
	return errors.Join(errs...)
}

// Draft checks the required fields and converts the form to a request
// body. Values are sent as typed; only the date is rewritten.
func (in FormInput) Draft() (model.PartyDraft, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", in.Name},
		{"date", in.Date},
		{"location", in.Location},
		{"description", in.Description},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return model.PartyDraft{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	date, err := model.NormalizeDate(in.Date)
	if err != nil {
		return model.PartyDraft{}, fmt.Errorf("invalid date %q: %w", in.Date, err)
	}
	return model.PartyDraft{
		Name:        in.Name,
		Date:        date,
		Location:    in.Location,
		Description: in.Description,
	}, nil
}
