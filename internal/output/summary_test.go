package output

import (
	"fmt"
	"testing"

	"github.com/TomasB/ip2geo/internal/engine"
)

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())

	want := Summary{Lines: 5, Resolved: 2, Cached: 1, Invalid: 1, Failed: 1, Errored: 1}
	if s != want {
		t.Errorf("expected %+v, got %+v", want, s)
	}
	if got := s.String(); got != "5 lines: 2 resolved (1 cached), 1 invalid, 1 failed, 1 errors" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestSummaryLargeCounts(t *testing.T) {
	results := make([]engine.Result, 12345)
	for i := range results {
		results[i] = engine.Result{Line: i, Input: fmt.Sprint(i), Outcome: engine.OutcomeInvalid}
	}

	s := Summarize(results)
	if got := s.String(); got != "12,345 lines: 0 resolved (0 cached), 12,345 invalid, 0 failed, 0 errors" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestSummaryBlank(t *testing.T) {
	blank := []engine.Result{{Input: ""}, {Input: "  "}}
	if !Blank(blank) {
		t.Error("expected blank input")
	}
	if Blank(sampleResults()) {
		t.Error("expected non-blank input")
	}
}
