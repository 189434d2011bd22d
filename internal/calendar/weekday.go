package calendar

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalidWeekday indicates an unknown weekday name or number.
var ErrInvalidWeekday = errors.New("calendar: invalid weekday")

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "일": time.Sunday, "일요일": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "월": time.Monday, "월요일": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "화": time.Tuesday, "화요일": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "수": time.Wednesday, "수요일": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "목": time.Thursday, "목요일": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "금": time.Friday, "금요일": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "토": time.Saturday, "토요일": time.Saturday,
}

var koreanWeekdays = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// ValidDayOfWeek reports whether n is a grid day number, Sunday=0 through Saturday=6.
func ValidDayOfWeek(n int) bool {
	return n >= int(time.Sunday) && n <= int(time.Saturday)
}

// DayOfWeek converts a grid day number to a time.Weekday.
func DayOfWeek(n int) (time.Weekday, error) {
	if !ValidDayOfWeek(n) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWeekday, n)
	}
	return time.Weekday(n), nil
}

// ParseWeekday resolves English full or short names, Korean day names, and
// the digits 0-6.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if day, ok := weekdayNames[key]; ok {
		return day, nil
	}
	if len(key) == 1 && key[0] >= '0' && key[0] <= '6' {
		return time.Weekday(key[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}

// ParseWeekdays resolves every name and returns the distinct weekdays in
// Sunday-first order.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]struct{}, len(names))
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	slices.Sort(out)
	return out, nil
}

// KoreanWeekday returns the single-character Korean name of day.
func KoreanWeekday(day time.Weekday) string {
	if day < time.Sunday || day > time.Saturday {
		return ""
	}
	return koreanWeekdays[day]
}
