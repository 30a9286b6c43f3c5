package data

import (
	"context"
	"net/netip"

	"github.com/TomasB/ip2geo/internal/geo"
)

// Lookup defines the interface for resolving an IP address to a geolocation record.
type Lookup interface {
	// Lookup resolves ip to a record. A record whose status is not "success"
	// reports an upstream failure; a non-nil error reports that the call itself
	// failed. Implementations enforce their own timeout through ctx.
	Lookup(ctx context.Context, ip netip.Addr) (geo.Record, error)

	// Close releases any resources held by the lookup implementation.
	Close() error
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(ctx context.Context, ip netip.Addr) (geo.Record, error)

// Lookup calls f(ctx, ip).
func (f LookupFunc) Lookup(ctx context.Context, ip netip.Addr) (geo.Record, error) {
	return f(ctx, ip)
}

// Close is a no-op.
func (f LookupFunc) Close() error {
	return nil
}
