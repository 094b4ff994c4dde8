package validate

import "fmt"

// Outcome classifies one row after validation. The four states are
// distinct on purpose: a mismatch, a not-found, and a failed lookup must
// render and filter differently.
type Outcome int

const (
	// OutcomeValid means the remote record agreed on isbn, price, and author.
	OutcomeValid Outcome = iota
	// OutcomeMismatch means a record was found but at least one gated field
	// disagreed.
	OutcomeMismatch
	// OutcomeNotFound means the lookup succeeded with zero results.
	OutcomeNotFound
	// OutcomeLookupError means the lookup itself failed, or the row had no
	// usable ISBN to look up.
	OutcomeLookupError
)

// String returns the stable identifier used in JSON payloads and filters.
func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeLookupError:
		return "lookup_error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so Outcome renders as its
// string form in JSON.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler as the inverse of
// MarshalText, via ParseOutcome.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, ok := ParseOutcome(string(text))
	if !ok {
		return fmt.Errorf("unknown outcome %q", text)
	}
	*o = parsed
	return nil
}

// Rank orders outcomes for status sorting: Valid > Mismatch > NotFound >
// LookupError.
func (o Outcome) Rank() int {
	switch o {
	case OutcomeValid:
		return 4
	case OutcomeMismatch:
		return 3
	case OutcomeNotFound:
		return 2
	default:
		return 1
	}
}

// ParseOutcome resolves a filter identifier back to an Outcome. The second
// return is false for unknown identifiers.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "valid":
		return OutcomeValid, true
	case "mismatch":
		return OutcomeMismatch, true
	case "not_found":
		return OutcomeNotFound, true
	case "lookup_error":
		return OutcomeLookupError, true
	default:
		return 0, false
	}
}
