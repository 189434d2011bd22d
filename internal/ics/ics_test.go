package ics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
)

func strPtr(value string) *string { return &value }

func TestExportAllDayUsesExclusiveEnd(t *testing.T) {
	end := calendar.MustParseDate("2024-05-03")
	events := []application.CalendarEvent{{
		ID:        "evt-1",
		Title:     "Midterm week",
		StartDate: calendar.MustParseDate("2024-05-01"),
		EndDate:   &end,
		IsAllDay:  true,
		IsHoliday: true,
		Category:  "exam",
		Scope:     application.ScopeShared,
	}}

	var buf bytes.Buffer
	if err := Export(&buf, events, "Academy", time.UTC); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:evt-1@academy-scheduler",
		"SUMMARY:Midterm week",
		"DTSTART;VALUE=DATE:20240501",
		"DTEND;VALUE=DATE:20240504",
		"X-ACADEMY-HOLIDAY:TRUE",
		"CATEGORIES:exam",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestExportTimedEventInLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	events := []application.CalendarEvent{{
		ID:        "evt-2",
		Title:     "Parent meeting",
		StartDate: calendar.MustParseDate("2024-03-04"),
		StartTime: strPtr("14:00"),
		EndTime:   strPtr("15:30"),
		Location:  strPtr("Room 301"),
		Scope:     application.ScopeShared,
	}}

	var buf bytes.Buffer
	if err := Export(&buf, events, "", seoul); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "DTSTART:20240304T050000Z") || !strings.Contains(out, "DTEND:20240304T063000Z") {
		t.Fatalf("expected UTC instants for 14:00-15:30 KST:\n%s", out)
	}
	if !strings.Contains(out, "LOCATION:Room 301") {
		t.Fatalf("expected location in output:\n%s", out)
	}
}

func TestRoundTrip(t *testing.T) {
	end := calendar.MustParseDate("2024-05-03")
	events := []application.CalendarEvent{
		{ID: "a", Title: "Trip", StartDate: calendar.MustParseDate("2024-05-01"), EndDate: &end, IsAllDay: true, Scope: application.ScopePersonal},
		{ID: "b", Title: "Review", StartDate: calendar.MustParseDate("2024-05-02"), StartTime: strPtr("09:00"), EndTime: strPtr("10:00"), Description: strPtr("weekly"), Scope: application.ScopeShared},
	}

	var buf bytes.Buffer
	if err := Export(&buf, events, "", time.UTC); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	inputs, skipped, err := Parse(&buf, time.UTC)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(skipped) != 0 || len(inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d (skipped %v)", len(inputs), skipped)
	}

	trip := inputs[0]
	if !trip.IsAllDay || trip.EndDate == nil || !trip.EndDate.Equal(end) || trip.Scope != application.ScopePersonal {
		t.Fatalf("unexpected all-day input %+v", trip)
	}
	review := inputs[1]
	if review.IsAllDay || review.StartTime == nil || *review.StartTime != "09:00" || review.EndTime == nil || *review.EndTime != "10:00" {
		t.Fatalf("unexpected timed input %+v", review)
	}
	if review.EndDate != nil {
		t.Fatalf("expected same-day event to have no end date, got %v", review.EndDate)
	}
	if review.Description == nil || *review.Description != "weekly" {
		t.Fatalf("expected description to survive, got %v", review.Description)
	}
}

func TestParseExternalCalendar(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Example//EN",
		"BEGIN:VEVENT",
		"UID:holiday-1",
		"SUMMARY:Children's Day",
		"DTSTART;VALUE=DATE:20240505",
		"DTEND;VALUE=DATE:20240506",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:weekly-1",
		"SUMMARY:Staff sync",
		"DTSTART:20240506T010000Z",
		"DTEND:20240506T020000Z",
		"RRULE:FREQ=WEEKLY;COUNT=4",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:broken",
		"DTSTART:20240507T010000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	seoul := time.FixedZone("KST", 9*60*60)
	inputs, skipped, err := Parse(strings.NewReader(body), seoul)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(inputs) != 2 || len(skipped) != 1 {
		t.Fatalf("expected 2 inputs and 1 skipped, got %d and %v", len(inputs), skipped)
	}

	holiday := inputs[0]
	if !holiday.IsAllDay || holiday.EndDate != nil || holiday.StartDate.String() != "2024-05-05" {
		t.Fatalf("expected single all-day event, got %+v", holiday)
	}
	sync := inputs[1]
	if sync.StartDate.String() != "2024-05-06" || *sync.StartTime != "10:00" || *sync.EndTime != "11:00" {
		t.Fatalf("expected first occurrence in local time, got %+v", sync)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, _, err := Parse(strings.NewReader("  "), time.UTC); !errors.Is(err, ErrEmptyCalendar) {
		t.Fatalf("expected ErrEmptyCalendar, got %v", err)
	}
	body := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:x\r\nEND:VCALENDAR\r\n"
	if _, _, err := Parse(strings.NewReader(body), time.UTC); !errors.Is(err, ErrEmptyCalendar) {
		t.Fatalf("expected ErrEmptyCalendar for a calendar without events, got %v", err)
	}
}
