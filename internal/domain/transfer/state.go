package domain_transfer

import "fmt"

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSettled Status = "SETTLED"
	StatusAMLHold Status = "AML_HOLD"
	StatusFailed  Status = "FAILED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusSettled, StatusAMLHold, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

func (s Status) IsFinal() bool {
	switch s {
	case StatusSettled, StatusAMLHold, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether s -> next is a legal move. Only PENDING has outgoing edges.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}

	switch next {
	case StatusSettled, StatusAMLHold, StatusFailed:
		return true
	default:
		return false
	}
}
