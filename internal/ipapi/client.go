package ipapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/TomasB/ip2geo/internal/geo"
	jsoniter "github.com/json-iterator/go"
)

const (
	// ProURL is the keyed endpoint.
	ProURL = "https://pro.ip-api.com"
	// FreeURL is the keyless endpoint; it only serves plain HTTP.
	FreeURL = "http://ip-api.com"

	DefaultTimeout = 5 * time.Second

	maxBodyBytes = 1 << 20
)

var (
	// ErrStatus is returned for a non-2xx response without a usable body.
	ErrStatus = errors.New("ip-api: unexpected HTTP status")
	// ErrDecode is returned when the response body is not an ip-api record.
	ErrDecode = errors.New("ip-api: malformed response")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fieldsParam is the comma joined field list requested from the API.
var fieldsParam = strings.Join(geo.Fields, ",")

// Client resolves addresses against the ip-api.com JSON endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration

	mu  sync.RWMutex
	key string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithBaseURL overrides the endpoint chosen from the key.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// NewClient returns a client authenticating with key. An empty key uses the
// free endpoint unless a base URL is set.
func NewClient(key string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		timeout: DefaultTimeout,
		key:     strings.TrimSpace(key),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetKey replaces the API key used by subsequent requests.
func (c *Client) SetKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = strings.TrimSpace(key)
}

// Key returns the API key currently in use.
func (c *Client) Key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

// Lookup queries the API for ip. Upstream failures such as an invalid key or
// a reserved range come back as a record with status "fail"; only transport
// and decoding problems are returned as errors.
func (c *Client) Lookup(ctx context.Context, ip netip.Addr) (geo.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(ip), nil)
	if err != nil {
		return geo.Record{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return geo.Record{}, fmt.Errorf("query %s: %w", ip, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return geo.Record{}, fmt.Errorf("read response for %s: %w", ip, err)
	}

	rec, decodeErr := decodeRecord(body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil {
			return rec, nil
		}
		return geo.Record{}, fmt.Errorf("%w: %d for %s", ErrStatus, resp.StatusCode, ip)
	}
	if decodeErr != nil {
		return geo.Record{}, fmt.Errorf("%s: %w", ip, decodeErr)
	}
	return rec, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) endpoint(ip netip.Addr) string {
	key := c.Key()
	base := c.baseURL
	if base == "" {
		base = FreeURL
		if key != "" {
			base = ProURL
		}
	}

	params := url.Values{}
	params.Set("fields", fieldsParam)
	if key != "" {
		params.Set("key", key)
	}
	return fmt.Sprintf("%s/json/%s?%s", base, url.PathEscape(ip.String()), params.Encode())
}

// response mirrors the API payload. Pointers distinguish absent booleans
// from false.
type response struct {
	Query      string `json:"query"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	District   string `json:"district"`
	Zip        string `json:"zip"`
	ISP        string `json:"isp"`
	Org        string `json:"org"`
	AS         string `json:"as"`
	Mobile     *bool  `json:"mobile"`
	Proxy      *bool  `json:"proxy"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func decodeRecord(body []byte) (geo.Record, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return geo.Record{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if r.Status == "" {
		return geo.Record{}, fmt.Errorf("%w: missing status", ErrDecode)
	}
	return geo.Record{
		Query:      r.Query,
		Country:    r.Country,
		RegionName: r.RegionName,
		City:       r.City,
		District:   r.District,
		Zip:        r.Zip,
		ISP:        r.ISP,
		Org:        r.Org,
		AS:         r.AS,
		Mobile:     formatBool(r.Mobile),
		Proxy:      formatBool(r.Proxy),
		Status:     r.Status,
		Message:    r.Message,
	}, nil
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
