package recurrence

import (
	"testing"
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
)

func yearRule(kind Kind, weekdays ...time.Weekday) Rule {
	end := calendar.MustParseDate("2024-12-31")
	return Rule{Kind: kind, Weekdays: weekdays, StartDate: calendar.MustParseDate("2024-01-01"), EndDate: &end}
}

func BenchmarkExpand(b *testing.B) {
	rules := map[string]Rule{
		"daily":    yearRule(KindDaily),
		"weekdays": yearRule(KindWeekdaySet, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		"monthly":  yearRule(KindMonthly),
	}
	for name, rule := range rules {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if dates, err := Expand(rule); err != nil || len(dates) == 0 {
					b.Fatalf("expected dates, got %d (err %v)", len(dates), err)
				}
			}
		})
	}
}

// The materializer consumes Dates lazily; this measures a full year walk.
func BenchmarkDatesIterator(b *testing.B) {
	rule := yearRule(KindDaily)
	for i := 0; i < b.N; i++ {
		seq, err := Dates(rule)
		if err != nil {
			b.Fatalf("Dates: %v", err)
		}
		n := 0
		for range seq {
			n++
		}
		if n != 366 {
			b.Fatalf("expected 366 days in 2024, got %d", n)
		}
	}
}
