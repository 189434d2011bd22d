package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeOfDay indicates a value that is not an HH:MM wall-clock time.
var ErrInvalidTimeOfDay = errors.New("calendar: invalid time of day")

// NormalizeTimeOfDay validates an HH:MM or HH:MM:SS value and returns it as HH:MM.
func NormalizeTimeOfDay(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
}
