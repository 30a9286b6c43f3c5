package engine

import "net/netip"

// plan is the deduplicated view of a batch.
type plan struct {
	// keys maps line position to its lookup key; "" marks an invalid line.
	keys []string
	// unique holds each distinct valid key once.
	unique map[string]netip.Addr
}

func dedupe(lines []string) plan {
	p := plan{
		keys:   make([]string, len(lines)),
		unique: make(map[string]netip.Addr),
	}
	for i, line := range lines {
		key, addr, ok := Validate(line)
		if !ok {
			continue
		}
		p.keys[i] = key
		p.unique[key] = addr
	}
	return p
}
