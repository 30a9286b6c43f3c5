package engine

import "github.com/TomasB/ip2geo/internal/geo"

// Outcome classifies how a line was (or was not) resolved.
type Outcome int

const (
	// OutcomeInvalid marks a line that is not an IP address.
	OutcomeInvalid Outcome = iota
	// OutcomeCached marks a line served from a previous run's cache entry.
	OutcomeCached
	// OutcomeSuccess marks a line resolved by this run's dispatch.
	OutcomeSuccess
	// OutcomeFailure marks an upstream non-success status.
	OutcomeFailure
	// OutcomeError marks a transport, timeout or decoding error.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeCached:
		return "cached"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Resolved reports whether the outcome carries a record.
func (o Outcome) Resolved() bool {
	return o == OutcomeCached || o == OutcomeSuccess
}

// Result is the engine's answer for one input line.
type Result struct {
	Line    int
	Input   string
	Key     string
	Outcome Outcome
	// Record is set when Outcome.Resolved(); for OutcomeFailure it holds the
	// upstream record explaining the failure.
	Record geo.Record
	// Err is set for OutcomeError.
	Err error
}

// Row renders the result with p, or "" when it is not resolved.
func (r Result) Row(p geo.Projection) string {
	if !r.Outcome.Resolved() {
		return ""
	}
	return p.Row(r.Record)
}

// Rows renders every result with p, one entry per input line.
func Rows(results []Result, p geo.Projection) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Row(p)
	}
	return out
}

// settled is the outcome of one dispatched key.
type settled struct {
	outcome Outcome
	record  geo.Record
	err     error
}
