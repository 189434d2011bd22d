package scheduler

import "sort"

// DayStats aggregates the bookings of one weekday.
type DayStats struct {
	Day      int
	Slots    int
	Teachers int
	Students int
}

// ComputeStats returns per-day totals for the days that have bookings, in day
// order. Students are counted once per day across all of that day's bookings.
func ComputeStats(occupants []Occupant) []DayStats {
	type accumulator struct {
		slots    int
		teachers map[int64]struct{}
		students map[int64]struct{}
	}

	byDay := make(map[int]*accumulator)
	for _, occupant := range occupants {
		acc, ok := byDay[occupant.Cell.Day]
		if !ok {
			acc = &accumulator{teachers: map[int64]struct{}{}, students: map[int64]struct{}{}}
			byDay[occupant.Cell.Day] = acc
		}
		acc.slots++
		acc.teachers[occupant.TeacherID] = struct{}{}
		for _, studentID := range occupant.StudentIDs {
			acc.students[studentID] = struct{}{}
		}
	}

	stats := make([]DayStats, 0, len(byDay))
	for day, acc := range byDay {
		stats = append(stats, DayStats{
			Day:      day,
			Slots:    acc.slots,
			Teachers: len(acc.teachers),
			Students: len(acc.students),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Day < stats[j].Day })
	return stats
}
