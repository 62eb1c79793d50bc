package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/clientpulse/clientpulse/internal/ports"
)

// CalendarAdapter implements CalendarService on the Google Calendar API
type CalendarAdapter struct {
	svc        *calendar.Service
	calendarID string
}

// NewCalendarAdapter creates a Calendar adapter acting as the configured
// user. An empty calendarID means the user's primary calendar.
func NewCalendarAdapter(ctx context.Context, cfg Config, calendarID string) (*CalendarAdapter, error) {
	opts, err := ClientOptions(ctx, cfg, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &CalendarAdapter{svc: svc, calendarID: calendarID}, nil
}

// ListUpcoming returns events starting within [from, to)
func (a *CalendarAdapter) ListUpcoming(ctx context.Context, from, to time.Time) ([]ports.CalendarEvent, error) {
	list, err := a.svc.Events.List(a.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list calendar events: %w", err))
	}

	var out []ports.CalendarEvent
	for _, ev := range list.Items {
		startsAt, ok := eventTime(ev.Start)
		if !ok {
			// all-day events carry only a date; skip them
			continue
		}
		endsAt, ok := eventTime(ev.End)
		if !ok {
			continue
		}

		var attendees []string
		for _, att := range ev.Attendees {
			if att.Email != "" {
				attendees = append(attendees, att.Email)
			}
		}

		out = append(out, ports.CalendarEvent{
			ID:        ev.Id,
			Title:     ev.Summary,
			StartsAt:  startsAt,
			EndsAt:    endsAt,
			Attendees: attendees,
		})
	}
	return out, nil
}

func eventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil || dt.DateTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, dt.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
