package output

import (
	"fmt"
	"strings"

	"github.com/TomasB/ip2geo/internal/engine"
	"github.com/dustin/go-humanize"
)

// Summary counts a batch's results by outcome.
type Summary struct {
	Lines    int
	Resolved int
	Cached   int
	Invalid  int
	Failed   int
	Errored  int
}

// Summarize tallies results.
func Summarize(results []engine.Result) Summary {
	s := Summary{Lines: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case engine.OutcomeSuccess:
			s.Resolved++
		case engine.OutcomeCached:
			s.Resolved++
			s.Cached++
		case engine.OutcomeInvalid:
			s.Invalid++
		case engine.OutcomeFailure:
			s.Failed++
		case engine.OutcomeError:
			s.Errored++
		}
	}
	return s
}

// Blank reports whether no input line held anything but whitespace.
func Blank(results []engine.Result) bool {
	for _, r := range results {
		if strings.TrimSpace(r.Input) != "" {
			return false
		}
	}
	return true
}

func (s Summary) String() string {
	return fmt.Sprintf("%s lines: %s resolved (%s cached), %s invalid, %s failed, %s errors",
		humanize.Comma(int64(s.Lines)),
		humanize.Comma(int64(s.Resolved)),
		humanize.Comma(int64(s.Cached)),
		humanize.Comma(int64(s.Invalid)),
		humanize.Comma(int64(s.Failed)),
		humanize.Comma(int64(s.Errored)),
	)
}
