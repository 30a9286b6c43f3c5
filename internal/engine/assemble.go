package engine

import "github.com/TomasB/ip2geo/internal/geo"

// assemble builds one result per input line in input order. hits holds the
// records served from the cache before dispatch; dispatched holds this run's
// outcomes.
func (e *Engine) assemble(lines []string, p plan, hits map[string]geo.Record, dispatched map[string]settled) []Result {
	results := make([]Result, len(lines))
	for i, line := range lines {
		res := Result{Line: i, Input: line, Key: p.keys[i]}
		if res.Key == "" {
			res.Outcome = OutcomeInvalid
			results[i] = res
			continue
		}

		if s, ok := dispatched[res.Key]; ok {
			res.Outcome = s.outcome
			res.Record = s.record
			res.Err = s.err
			if s.outcome == OutcomeSuccess {
				if rec, ok := e.cache.Get(res.Key); ok {
					res.Record = rec
				}
			}
		} else if rec, ok := e.cache.Get(res.Key); ok {
			res.Outcome = OutcomeCached
			res.Record = rec
		} else {
			// The cache was cleared between the split and now.
			res.Outcome = OutcomeCached
			res.Record = hits[res.Key]
		}
		results[i] = res
	}
	return results
}
