package repair

import "fmt"

// Status is the lifecycle state of a repair order. It round-trips through
// storage as its symbolic name, never as a number.
//
// Transitions:
//
//	OPEN ──> IN_PROGRESS ──> COMPLETED
//	  │           │
//	  └───────────┴────────> CANCELLED
//
// COMPLETED and CANCELLED are terminal; no transition leads out of them.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// UnknownStatusError indicates a status value read from storage that does not
// name any known lifecycle state. The store treats this as a fatal
// deserialization error rather than coercing to a default.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown repair status %q", e.Value)
}

// ParseStatus converts a stored symbolic name back into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", &UnknownStatusError{Value: s}
	}
}

// IsTerminal reports whether no further transition is defined from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}
