package geo

import "strings"

// Field names follow the ip-api.com response keys.
const (
	FieldQuery      = "query"
	FieldCountry    = "country"
	FieldRegionName = "regionName"
	FieldCity       = "city"
	FieldDistrict   = "district"
	FieldZip        = "zip"
	FieldISP        = "isp"
	FieldOrg        = "org"
	FieldAS         = "as"
	FieldMobile     = "mobile"
	FieldProxy      = "proxy"
	FieldStatus     = "status"
	FieldMessage    = "message"
)

// StatusSuccess is the status value of a resolved record.
const StatusSuccess = "success"

// Fields is the fixed, ordered field set of a Record.
var Fields = []string{
	FieldQuery, FieldCountry, FieldRegionName, FieldCity, FieldDistrict, FieldZip,
	FieldISP, FieldOrg, FieldAS, FieldMobile, FieldProxy, FieldStatus, FieldMessage,
}

// Record is a resolved geolocation payload. Every field is always present;
// unknown values are empty strings.
type Record struct {
	Query      string `json:"query"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	District   string `json:"district"`
	Zip        string `json:"zip"`
	ISP        string `json:"isp"`
	Org        string `json:"org"`
	AS         string `json:"as"`
	Mobile     string `json:"mobile"`
	Proxy      string `json:"proxy"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Succeeded reports whether the upstream marked the record as resolved.
func (r Record) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Get returns the value of the named field and whether the name is known.
func (r Record) Get(name string) (string, bool) {
	switch name {
	case FieldQuery:
		return r.Query, true
	case FieldCountry:
		return r.Country, true
	case FieldRegionName:
		return r.RegionName, true
	case FieldCity:
		return r.City, true
	case FieldDistrict:
		return r.District, true
	case FieldZip:
		return r.Zip, true
	case FieldISP:
		return r.ISP, true
	case FieldOrg:
		return r.Org, true
	case FieldAS:
		return r.AS, true
	case FieldMobile:
		return r.Mobile, true
	case FieldProxy:
		return r.Proxy, true
	case FieldStatus:
		return r.Status, true
	case FieldMessage:
		return r.Message, true
	}
	return "", false
}

// Map returns the record as a field name to value map holding every field.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(Fields))
	for _, f := range Fields {
		m[f], _ = r.Get(f)
	}
	return m
}

// IsField reports whether name is one of Fields.
func IsField(name string) bool {
	_, ok := Record{}.Get(name)
	return ok
}

// Projection is an ordered subset of record fields used to render a row.
type Projection []string

// DefaultProjection matches the columns copied by the desktop tool:
// country, region, ISP and the proxy flag.
var DefaultProjection = Projection{FieldCountry, FieldRegionName, FieldISP, FieldProxy}

// ParseProjection parses a comma separated field list. An empty string
// yields DefaultProjection.
func ParseProjection(raw string) (Projection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultProjection, nil
	}
	var p Projection
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if !IsField(name) {
			return nil, &UnknownFieldError{Name: name}
		}
		p = append(p, name)
	}
	if len(p) == 0 {
		return DefaultProjection, nil
	}
	return p, nil
}

// Values returns the projected field values in order.
func (p Projection) Values(r Record) []string {
	out := make([]string, len(p))
	for i, name := range p {
		out[i], _ = r.Get(name)
	}
	return out
}

// Row joins the projected values with tabs.
func (p Projection) Row(r Record) string {
	return strings.Join(p.Values(r), "\t")
}

// UnknownFieldError is returned for a projection naming a field outside Fields.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return "unknown record field: " + e.Name
}
