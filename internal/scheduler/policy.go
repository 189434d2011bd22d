package scheduler

// WritePolicy selects how a write treats an occupied cell.
type WritePolicy int

const (
	// WriteStrict fails when the target cell is occupied by another booking.
	WriteStrict WritePolicy = iota
	// WriteQuickAssign overwrites the occupant of the target cell in place.
	WriteQuickAssign
)

func (p WritePolicy) String() string {
	if p == WriteQuickAssign {
		return "quick_assign"
	}
	return "strict"
}

// Action is what a write does to storage.
type Action int

const (
	// ActionInsert stores a new booking.
	ActionInsert Action = iota
	// ActionReplace overwrites the existing occupant.
	ActionReplace
)

func (a Action) String() string {
	if a == ActionReplace {
		return "replace"
	}
	return "insert"
}

// Decision is the outcome of applying a policy to a cell.
type Decision struct {
	Action   Action
	Existing *Occupant
}

// Decide resolves a write against the current occupant of cell. existing is
// nil for a free cell.
func Decide(policy WritePolicy, cell Cell, existing *Occupant) (Decision, error) {
	if existing == nil {
		return Decision{Action: ActionInsert}, nil
	}
	if policy == WriteQuickAssign {
		return Decision{Action: ActionReplace, Existing: existing}, nil
	}
	return Decision{}, &ConflictError{Cell: cell, OccupantID: existing.ID}
}
