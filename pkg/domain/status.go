package domain

import "fmt"

type Status string

const (
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSigning  Status = "signing"
	StatusSigned   Status = "signed"
	StatusError    Status = "error"
)

// transitions is the full edge set of the submission lifecycle. The
// error->approved edge is the explicit operator reset; without it a failed
// signing attempt would strand the submission permanently.
var transitions = map[Status][]Status{
	StatusPending:  {StatusReviewed, StatusApproved, StatusRejected},
	StatusReviewed: {StatusApproved, StatusRejected},
	StatusApproved: {StatusSigning},
	StatusSigning:  {StatusSigned, StatusError, StatusApproved},
	StatusError:    {StatusApproved},
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusReviewed, StatusApproved, StatusRejected,
		StatusSigning, StatusSigned, StatusError:
		return true
	}
	return false
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CheckTransition(from, to Status) error {
	if !ValidStatus(from) || !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q -> %q", ErrInvalidTransition, from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsTerminal reports whether no further transition can leave s. Signed and
// rejected are terminal; error is recoverable only via the operator reset.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// IsReviewEdge reports whether from->to is a reviewer-driven decision, which
// stamps reviewed_at and requires reviewer authorization.
func IsReviewEdge(from, to Status) bool {
	if from != StatusPending && from != StatusReviewed {
		return false
	}
	return to == StatusReviewed || to == StatusApproved || to == StatusRejected
}
