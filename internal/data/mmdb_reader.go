package data

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/TomasB/ip2geo/internal/geo"
	"github.com/oschwald/geoip2-golang"
)

const (
	statusFail      = "fail"
	messageNotFound = "address not found"
)

// MmdbReader implements Lookup using MaxMind MMDB files. The location
// database may be a City or Country edition; an optional ASN database
// fills the network owner fields.
type MmdbReader struct {
	db     *geoip2.Reader
	asn    *geoip2.Reader
	isCity bool
}

// NewMmdbReader opens the MMDB file at the given path and, when asnPath is
// not empty, the ASN database next to it.
func NewMmdbReader(path, asnPath string) (*MmdbReader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MMDB file: %w", err)
	}
	r := &MmdbReader{
		db:     db,
		isCity: strings.Contains(db.Metadata().DatabaseType, "City"),
	}
	if asnPath != "" {
		asn, err := geoip2.Open(asnPath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open ASN MMDB file: %w", err)
		}
		r.asn = asn
	}
	return r, nil
}

// Lookup resolves ip against the local databases. Addresses missing from the
// location database produce a "fail" record, mirroring the remote service.
func (r *MmdbReader) Lookup(ctx context.Context, ip netip.Addr) (geo.Record, error) {
	if err := ctx.Err(); err != nil {
		return geo.Record{}, err
	}
	netIP := net.IP(ip.WithZone("").AsSlice())
	rec := geo.Record{Query: ip.String()}

	if r.isCity {
		city, err := r.db.City(netIP)
		if err != nil {
			return geo.Record{}, fmt.Errorf("city lookup failed: %w", err)
		}
		if city.Country.IsoCode == "" {
			return notFound(rec), nil
		}
		rec.Country = englishName(city.Country.Names, city.Country.IsoCode)
		if len(city.Subdivisions) > 0 {
			rec.RegionName = englishName(city.Subdivisions[0].Names, city.Subdivisions[0].IsoCode)
		}
		rec.City = city.City.Names["en"]
		rec.Zip = city.Postal.Code
		rec.Proxy = strconv.FormatBool(city.Traits.IsAnonymousProxy)
	} else {
		country, err := r.db.Country(netIP)
		if err != nil {
			return geo.Record{}, fmt.Errorf("country lookup failed: %w", err)
		}
		if country.Country.IsoCode == "" {
			return notFound(rec), nil
		}
		rec.Country = englishName(country.Country.Names, country.Country.IsoCode)
		rec.Proxy = strconv.FormatBool(country.Traits.IsAnonymousProxy)
	}

	if r.asn != nil {
		asn, err := r.asn.ASN(netIP)
		if err != nil {
			return geo.Record{}, fmt.Errorf("asn lookup failed: %w", err)
		}
		if asn.AutonomousSystemNumber != 0 {
			rec.ISP = asn.AutonomousSystemOrganization
			rec.Org = asn.AutonomousSystemOrganization
			rec.AS = strings.TrimSpace(fmt.Sprintf("AS%d %s", asn.AutonomousSystemNumber, asn.AutonomousSystemOrganization))
		}
	}

	rec.Status = geo.StatusSuccess
	return rec, nil
}

// Ready reports an error when the reader has been closed.
func (r *MmdbReader) Ready() error {
	if r.db == nil {
		return errors.New("MMDB reader is closed")
	}
	return nil
}

// Close releases the MMDB reader resources.
func (r *MmdbReader) Close() error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	if r.asn != nil {
		errs = append(errs, r.asn.Close())
		r.asn = nil
	}
	return errors.Join(errs...)
}

func notFound(rec geo.Record) geo.Record {
	rec.Status = statusFail
	rec.Message = messageNotFound
	return rec
}

func englishName(names map[string]string, fallback string) string {
	if n := names["en"]; n != "" {
		return n
	}
	return fallback
}
