// Package ics converts calendar events to and from iCalendar (RFC 5545).
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
)

const (
	productID = "-//academy-scheduler//calendar//KO"
	uidDomain = "academy-scheduler"

	propertyScope   ical.ComponentProperty = "X-ACADEMY-SCOPE"
	propertyHoliday ical.ComponentProperty = "X-ACADEMY-HOLIDAY"
)

// ErrEmptyCalendar is returned when an import holds no usable VEVENT.
var ErrEmptyCalendar = errors.New("ics: calendar has no events")

// Export writes events as one VCALENDAR. Wall-clock times are interpreted in
// loc. All-day events use DATE values with an exclusive DTEND.
func Export(w io.Writer, events []application.CalendarEvent, name string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, event := range events {
		ve := cal.AddEvent(event.ID + "@" + uidDomain)
		ve.SetDtStampTime(event.UpdatedAt)
		ve.SetCreatedTime(event.CreatedAt)
		ve.SetModifiedAt(event.UpdatedAt)
		ve.SetSummary(event.Title)
		if event.Description != nil {
			ve.SetDescription(*event.Description)
		}
		if event.Location != nil {
			ve.SetLocation(*event.Location)
		}
		if event.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, event.Category)
		}
		if event.Color != "" {
			ve.SetProperty(ical.ComponentPropertyColor, event.Color)
		}
		ve.SetProperty(propertyScope, string(event.Scope))
		if event.IsHoliday {
			ve.SetProperty(propertyHoliday, "TRUE")
		}

		occupied := event.Occupies()
		start, end, timed := wallClock(event, loc)
		if timed {
			ve.SetStartAt(start)
			ve.SetEndAt(end)
			continue
		}
		ve.SetAllDayStartAt(occupied.Start.Time())
		ve.SetAllDayEndAt(occupied.End.AddDays(1).Time())
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// wallClock resolves a timed event's start and end instants. Events without a
// start time are exported as all-day.
func wallClock(event application.CalendarEvent, loc *time.Location) (time.Time, time.Time, bool) {
	if event.IsAllDay || event.StartTime == nil {
		return time.Time{}, time.Time{}, false
	}
	start, err := at(event.StartDate, *event.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end := start.Add(time.Hour)
	if event.EndTime != nil {
		endDate := event.Occupies().End
		if t, err := at(endDate, *event.EndTime, loc); err == nil && !t.Before(start) {
			end = t
		}
	}
	return start, end, true
}

func at(date calendar.Date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", clock, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// Parse reads every VEVENT of an iCalendar stream into event inputs. Recurring
// events contribute their first occurrence only. Events missing a summary or
// start are skipped and reported in skipped.
func Parse(r io.Reader, loc *time.Location) (inputs []application.EventInput, skipped []error, err error) {
	if loc == nil {
		loc = time.Local
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("ics: read: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, ErrEmptyCalendar
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("ics: parse: %w", err)
	}

	for i, ve := range cal.Events() {
		input, perr := parseEvent(ve, loc)
		if perr != nil {
			skipped = append(skipped, fmt.Errorf("ics: event %d: %w", i, perr))
			continue
		}
		inputs = append(inputs, input)
	}
	if len(inputs) == 0 && len(skipped) == 0 {
		return nil, nil, ErrEmptyCalendar
	}
	return inputs, skipped, nil
}

func parseEvent(ve *ical.VEvent, loc *time.Location) (application.EventInput, error) {
	var in application.EventInput

	in.Title = strings.TrimSpace(propertyValue(ve, ical.ComponentPropertySummary))
	if in.Title == "" {
		return in, errors.New("missing SUMMARY")
	}
	in.Description = optional(propertyValue(ve, ical.ComponentPropertyDescription))
	in.Location = optional(propertyValue(ve, ical.ComponentPropertyLocation))
	if categories := propertyValue(ve, ical.ComponentPropertyCategories); categories != "" {
		in.Category = strings.TrimSpace(strings.Split(categories, ",")[0])
	}
	in.Color = strings.TrimSpace(propertyValue(ve, ical.ComponentPropertyColor))
	in.Scope = application.Scope(strings.ToLower(propertyValue(ve, propertyScope)))
	in.IsHoliday = strings.EqualFold(propertyValue(ve, propertyHoliday), "TRUE")

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return in, errors.New("missing DTSTART")
	}

	if isDateValue(dtStart) {
		start, err := parseDate(dtStart.Value, loc)
		if err != nil {
			return in, fmt.Errorf("DTSTART: %w", err)
		}
		in.IsAllDay = true
		in.StartDate = start
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if exclusive, err := parseDate(dtEnd.Value, loc); err == nil {
				last := exclusive.AddDays(-1)
				if last.After(start) {
					in.EndDate = &last
				}
			}
		}
		return in, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return in, fmt.Errorf("DTSTART: %w", err)
	}
	start = start.In(loc)
	in.StartDate = calendar.FromTime(start)
	in.StartTime = optional(start.Format("15:04"))

	if end, err := ve.GetEndAt(); err == nil && !end.IsZero() {
		end = end.In(loc)
		in.EndTime = optional(end.Format("15:04"))
		if endDate := calendar.FromTime(end); endDate.After(in.StartDate) {
			in.EndDate = &endDate
		}
	}
	return in, nil
}

func propertyValue(ve *ical.VEvent, property ical.ComponentProperty) string {
	if p := ve.GetProperty(property); p != nil {
		return p.Value
	}
	return ""
}

func isDateValue(p *ical.IANAProperty) bool {
	if values, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(values) > 0 && strings.EqualFold(values[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func parseDate(value string, loc *time.Location) (calendar.Date, error) {
	value = strings.TrimSpace(value)
	if len(value) < 8 {
		return calendar.Date{}, fmt.Errorf("invalid date %q", value)
	}
	t, err := time.ParseInLocation("20060102", value[:8], loc)
	if err != nil {
		return calendar.Date{}, err
	}
	return calendar.FromTime(t), nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
