package ics

import (
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "partyplanner/internal/log"
	"partyplanner/internal/model"
)

const productID = "-//partyplanner//Party Planner//EN"

// ExportOptions controls calendar generation.
type ExportOptions struct {
	// Source identifies the API the parties came from. It seeds the event
	// UIDs, so the same party keeps the same UID across exports.
	Source string
	// Name is the calendar display name.
	Name string
	// Now stamps DTSTAMP. Zero means time.Now().
	Now time.Time
}

// Export renders parties as an iCalendar feed with one all-day VEVENT per
// party, in list order. Parties whose date cannot be parsed are skipped and
// logged.
func Export(parties []model.Party, opts ExportOptions) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := opts.Name
	if name == "" {
		name = "Party Planner"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(name)
	cal.SetXWRCalName(name)

	skipped := 0
	for _, p := range parties {
		day, err := model.CalendarDay(p.Date)
		if err != nil {
			skipped++
			appLog.Error("ics export: skipping party with bad date", err, "id", p.ID, "date", p.Date)
			continue
		}

		ev := cal.AddEvent(EventUID(opts.Source, p.ID))
		ev.SetDtStampTime(now.UTC())
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(p.Name)
		if p.Location != "" {
			ev.SetLocation(p.Location)
		}
		if p.Description != "" {
			ev.SetDescription(p.Description)
		}
	}

	appLog.Debug("ics export completed", "event_count", len(parties)-skipped, "skipped", skipped)
	return cal.Serialize()
}

// EventUID derives a stable UID for party id from source.
func EventUID(source string, id int) string {
	name := source + "/events/" + strconv.Itoa(id)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@partyplanner"
}
