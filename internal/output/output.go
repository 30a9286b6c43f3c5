package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/TomasB/ip2geo/internal/engine"
	"github.com/TomasB/ip2geo/internal/geo"
	jsoniter "github.com/json-iterator/go"
)

// Format selects how results are serialized.
type Format string

const (
	// FormatTSV writes the projected fields tab-joined, one line per input
	// line, with an empty line for anything unresolved.
	FormatTSV Format = "tsv"
	// FormatCSV writes a header and the input next to the projected fields.
	FormatCSV Format = "csv"
	// FormatJSONL writes one JSON object per input line.
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTSV, FormatCSV, FormatJSONL:
		return f, nil
	case "":
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Write serializes results to w.
func Write(w io.Writer, f Format, p geo.Projection, results []engine.Result) error {
	switch f {
	case FormatTSV, "":
		return writeTSV(w, p, results)
	case FormatCSV:
		return writeCSV(w, p, results)
	case FormatJSONL:
		return writeJSONL(w, results)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// Text joins the projected rows with newlines, the layout pasted back into
// spreadsheets by the interactive front-ends.
func Text(p geo.Projection, results []engine.Result) string {
	return strings.Join(engine.Rows(results, p), "\n")
}

func writeTSV(w io.Writer, p geo.Projection, results []engine.Result) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if _, err := bw.WriteString(r.Row(p)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, p geo.Projection, results []engine.Result) error {
	cw := csv.NewWriter(w)
	header := append([]string{"input"}, p...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := make([]string, 0, len(p)+1)
		row = append(row, strings.TrimSpace(r.Input))
		if r.Outcome.Resolved() {
			row = append(row, p.Values(r.Record)...)
		} else {
			row = append(row, make([]string, len(p))...)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONResult is the JSON shape of one result.
type JSONResult struct {
	Line    int               `json:"line"`
	Input   string            `json:"input"`
	Outcome string            `json:"outcome"`
	Record  map[string]string `json:"record"`
	Error   string            `json:"error,omitempty"`
}

// NewJSONResult converts r. Record is nil for invalid and errored lines; for
// upstream failures it carries the failure record.
func NewJSONResult(r engine.Result) JSONResult {
	out := JSONResult{Line: r.Line, Input: r.Input, Outcome: r.Outcome.String()}
	switch r.Outcome {
	case engine.OutcomeCached, engine.OutcomeSuccess, engine.OutcomeFailure:
		out.Record = r.Record.Map()
	case engine.OutcomeError:
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
	}
	if r.Outcome == engine.OutcomeFailure {
		out.Error = r.Record.Message
	}
	return out
}

func writeJSONL(w io.Writer, results []engine.Result) error {
	bw := bufio.NewWriter(w)
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(bw)
	for _, r := range results {
		if err := enc.Encode(NewJSONResult(r)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
