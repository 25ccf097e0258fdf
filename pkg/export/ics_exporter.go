package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//sma//timetable-engine//EN"

// Event is one calendar entry.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// Weekly marks the event as repeating every week until RepeatUntil.
	Weekly      bool
	RepeatUntil time.Time
}

// ICSExporter renders events as an iCalendar (RFC 5545) document.
type ICSExporter struct {
	now func() time.Time
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{now: time.Now}
}

// Render writes one VEVENT per event.
func (e *ICSExporter) Render(name string, events []Event) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ics event %q requires a uid", ev.Summary)
		}
		if !ev.Start.Before(ev.End) {
			return nil, fmt.Errorf("ics event %s must start before it ends", ev.UID)
		}
		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(ev.Start)
		vevent.SetEndAt(ev.End)
		vevent.SetSummary(ev.Summary)
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Weekly {
			rule := "FREQ=WEEKLY"
			if !ev.RepeatUntil.IsZero() {
				rule += ";UNTIL=" + ev.RepeatUntil.UTC().Format("20060102T150405Z")
			}
			vevent.AddRrule(rule)
		}
	}

	return []byte(cal.Serialize()), nil
}
