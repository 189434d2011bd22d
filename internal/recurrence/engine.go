package recurrence

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/example/academy-scheduler/internal/calendar"
)

// DefaultHorizonDays is the window length applied when a rule has no end date.
const DefaultHorizonDays = 365

// Kind identifies the repetition pattern of a rule.
type Kind int

const (
	// KindUnspecified indicates the rule kind is not set.
	KindUnspecified Kind = iota
	// KindDaily produces every date in the window.
	KindDaily
	// KindWeekly produces every date sharing the start date's weekday.
	KindWeekly
	// KindMonthly produces every date sharing the start date's day of month.
	// Months without that day are skipped.
	KindMonthly
	// KindWeekdaySet produces every date whose weekday is in the rule's set.
	KindWeekdaySet
)

var (
	// ErrInvalidKind indicates the rule kind is not supported.
	ErrInvalidKind = errors.New("recurrence: invalid kind")
	// ErrInvalidWindow indicates the rule ends before it starts.
	ErrInvalidWindow = errors.New("recurrence: end date precedes start date")
	// ErrMissingStart indicates the rule has no start date.
	ErrMissingStart = errors.New("recurrence: start date is required")
	// ErrEmptyWeekdays indicates a weekday-set rule without weekdays.
	ErrEmptyWeekdays = errors.New("recurrence: weekday set is empty")
)

var kindNames = map[string]Kind{
	"daily":    KindDaily,
	"매일":       KindDaily,
	"weekly":   KindWeekly,
	"매주":       KindWeekly,
	"monthly":  KindMonthly,
	"매월":       KindMonthly,
	"weekdays": KindWeekdaySet,
	"weekday":  KindWeekdaySet,
	"요일별":      KindWeekdaySet,
}

// ParseKind resolves a kind name. Korean labels are accepted alongside English ones.
func ParseKind(name string) (Kind, error) {
	if kind, ok := kindNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return kind, nil
	}
	return KindUnspecified, fmt.Errorf("%w: %q", ErrInvalidKind, name)
}

func (k Kind) String() string {
	switch k {
	case KindDaily:
		return "daily"
	case KindWeekly:
		return "weekly"
	case KindMonthly:
		return "monthly"
	case KindWeekdaySet:
		return "weekdays"
	default:
		return "unspecified"
	}
}

// Rule is an unexpanded repetition pattern over a date window.
type Rule struct {
	Kind      Kind
	Weekdays  []time.Weekday
	StartDate calendar.Date
	EndDate   *calendar.Date
}

// Validate checks the rule can be expanded.
func (r Rule) Validate() error {
	if r.StartDate.IsZero() {
		return ErrMissingStart
	}
	switch r.Kind {
	case KindDaily, KindWeekly, KindMonthly:
	case KindWeekdaySet:
		if len(r.Weekdays) == 0 {
			return ErrEmptyWeekdays
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidKind, r.Kind)
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidWindow, r.StartDate, r.EndDate)
	}
	return nil
}

// Window returns the closed expansion window. A missing end date defaults to
// DefaultHorizonDays after the start.
func (r Rule) Window() calendar.Range {
	end := r.StartDate.AddDays(DefaultHorizonDays)
	if r.EndDate != nil && !r.EndDate.IsZero() {
		end = *r.EndDate
	}
	return calendar.Range{Start: r.StartDate, End: end}
}

// WeekdayNames renders the rule's weekday set with Korean day names.
func (r Rule) WeekdayNames() []string {
	if len(r.Weekdays) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Weekdays))
	for _, day := range r.Weekdays {
		names = append(names, calendar.KoreanWeekday(day))
	}
	return names
}

// RRule returns the RFC 5545 form of the rule.
func (r Rule) RRule() (string, error) {
	rr, err := r.build()
	if err != nil {
		return "", err
	}
	return rr.String(), nil
}

func (r Rule) build() (*rrule.RRule, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	window := r.Window()
	opt := rrule.ROption{
		Dtstart: window.Start.Time(),
		Until:   window.End.Time(),
	}

	switch r.Kind {
	case KindDaily:
		opt.Freq = rrule.DAILY
	case KindWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{toRRuleWeekday(r.StartDate.Weekday())}
	case KindMonthly:
		// rrule drops dates that do not exist in a month rather than clamping.
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{r.StartDate.Day()}
	case KindWeekdaySet:
		opt.Freq = rrule.DAILY
		opt.Byweekday = make([]rrule.Weekday, 0, len(r.Weekdays))
		for _, day := range r.Weekdays {
			opt.Byweekday = append(opt.Byweekday, toRRuleWeekday(day))
		}
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("recurrence: build rule: %w", err)
	}
	return rr, nil
}

// Expand returns every date of the rule in ascending order.
func Expand(rule Rule) ([]calendar.Date, error) {
	rr, err := rule.build()
	if err != nil {
		return nil, err
	}
	occurrences := rr.All()
	dates := make([]calendar.Date, 0, len(occurrences))
	for _, occurrence := range occurrences {
		dates = append(dates, calendar.FromTime(occurrence))
	}
	return dates, nil
}

// Dates returns a lazy ascending sequence of the rule's dates. Each call to the
// returned sequence restarts from the first date.
func Dates(rule Rule) (iter.Seq[calendar.Date], error) {
	if _, err := rule.build(); err != nil {
		return nil, err
	}
	return func(yield func(calendar.Date) bool) {
		rr, err := rule.build()
		if err != nil {
			return
		}
		next := rr.Iterator()
		for {
			occurrence, ok := next()
			if !ok {
				return
			}
			if !yield(calendar.FromTime(occurrence)) {
				return
			}
		}
	}, nil
}

func toRRuleWeekday(day time.Weekday) rrule.Weekday {
	switch day {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
