package scheduler

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
)

var (
	// ErrInvalidCell indicates a day outside 0..6 or an empty time-slot label.
	ErrInvalidCell = errors.New("scheduler: invalid cell")
	// ErrCellOccupied indicates a strict write targeted an occupied cell.
	ErrCellOccupied = errors.New("scheduler: cell occupied")
)

// Cell is one position of the weekly grid.
type Cell struct {
	Day      int
	TimeSlot string
}

// NewCell validates and normalizes a grid position.
func NewCell(day int, timeSlot string) (Cell, error) {
	timeSlot = strings.TrimSpace(timeSlot)
	if !calendar.ValidDayOfWeek(day) {
		return Cell{}, fmt.Errorf("%w: day %d", ErrInvalidCell, day)
	}
	if timeSlot == "" {
		return Cell{}, fmt.Errorf("%w: empty time slot", ErrInvalidCell)
	}
	return Cell{Day: day, TimeSlot: timeSlot}, nil
}

func (c Cell) String() string {
	return fmt.Sprintf("%s %s", calendar.KoreanWeekday(time.Weekday(c.Day)), c.TimeSlot)
}

// CompareCells orders cells by day, then by time-slot label.
func CompareCells(a, b Cell) int {
	if c := cmp.Compare(a.Day, b.Day); c != 0 {
		return c
	}
	return strings.Compare(a.TimeSlot, b.TimeSlot)
}

// Occupant is the booking that holds a cell.
type Occupant struct {
	ID         string
	Cell       Cell
	TeacherID  int64
	StudentIDs []int64
}

// ConflictError reports the occupant that blocked a strict write.
type ConflictError struct {
	Cell       Cell
	OccupantID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduler: cell %s is occupied by %s", e.Cell, e.OccupantID)
}

// Is matches ErrCellOccupied.
func (e *ConflictError) Is(target error) bool {
	return target == ErrCellOccupied
}

// Grid indexes occupants by cell.
type Grid struct {
	cells map[Cell]Occupant
}

// NewGrid builds an index over occupants. When two occupants share a cell the
// later one wins.
func NewGrid(occupants []Occupant) *Grid {
	g := &Grid{cells: make(map[Cell]Occupant, len(occupants))}
	for _, occupant := range occupants {
		g.cells[occupant.Cell] = occupant
	}
	return g
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Occupant returns the booking at cell, if any.
func (g *Grid) Occupant(cell Cell) (Occupant, bool) {
	occupant, ok := g.cells[cell]
	return occupant, ok
}

// FindConflict returns the occupant of cell unless it is excludeID.
func (g *Grid) FindConflict(cell Cell, excludeID string) (Occupant, bool) {
	occupant, ok := g.cells[cell]
	if !ok || (excludeID != "" && occupant.ID == excludeID) {
		return Occupant{}, false
	}
	return occupant, true
}

// Place writes candidate into the grid under policy and returns the decision
// taken. A replacing placement keeps the existing occupant's ID.
func (g *Grid) Place(candidate Occupant, policy WritePolicy) (Decision, error) {
	var existing *Occupant
	if occupant, ok := g.FindConflict(candidate.Cell, candidate.ID); ok {
		existing = &occupant
	}
	decision, err := Decide(policy, candidate.Cell, existing)
	if err != nil {
		return Decision{}, err
	}
	if decision.Action == ActionReplace {
		candidate.ID = decision.Existing.ID
	}
	for cell, occupant := range g.cells {
		if candidate.ID != "" && occupant.ID == candidate.ID && cell != candidate.Cell {
			delete(g.cells, cell)
		}
	}
	g.cells[candidate.Cell] = candidate
	return decision, nil
}
