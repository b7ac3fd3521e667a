package embed

import (
	"fmt"
	"time"
)

// Status is the terminal state of a solve.
type Status string

const (
	// StatusFound means a witness embedding exists and is attached.
	StatusFound Status = "found"

	// StatusExhausted means the search proved no embedding exists.
	StatusExhausted Status = "exhausted"

	// StatusTimedOut means the deadline passed first. Nothing is known.
	StatusTimedOut Status = "timed_out"
)

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusFound, StatusExhausted, StatusTimedOut:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Witness maps every FPO node to the point hosting it.
type Witness map[string]string

// Stats are search counters. All but Elapsed are deterministic.
type Stats struct {
	// Expansions counts candidate (node, point) pairs examined.
	Expansions int64 `json:"expansions"`

	// Backtracks counts frames popped after running out of candidates.
	Backtracks int64 `json:"backtracks"`

	// TheoryChecks counts theory evaluations.
	TheoryChecks int64 `json:"theory_checks"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Result is the outcome of a solve. Witness is set only when Status is
// StatusFound.
type Result struct {
	Status  Status  `json:"status"`
	Witness Witness `json:"witness,omitempty"`
	Stats   Stats   `json:"stats"`
	Reason  string  `json:"reason,omitempty"`
}

// Embeddable reports whether the result proves an embedding exists.
func (r Result) Embeddable() bool { return r.Status == StatusFound }

// Definitive reports whether the result settles the question either way.
func (r Result) Definitive() bool { return r.Status != StatusTimedOut }
