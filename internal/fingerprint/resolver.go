package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
)

const (
	// DefaultLookupURL is the ip-api.com endpoint; %s is the IP.
	DefaultLookupURL = "http://ip-api.com/json/%s?fields=countryCode"

	// DefaultLookupTimeout bounds one HTTP country lookup.
	DefaultLookupTimeout = 7 * time.Second
)

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// GeoIPDB is a GeoLite2 Country or City database. When set it is
	// consulted before the HTTP lookup.
	GeoIPDB string

	// LookupURL is a format string with one %s for the IP. Empty uses
	// DefaultLookupURL; "off" disables HTTP lookups.
	LookupURL string

	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

// Resolver detects a proxy's country. Results, including misses, are
// cached per IP for the resolver's lifetime.
type Resolver struct {
	lookupURL string
	client    *http.Client
	db        *geoip2.Reader
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// Result is the outcome of Resolve.
type Result struct {
	Country     string      `json:"country"`
	Fingerprint Fingerprint `json:"fingerprint"`
	// Resolved is false when the US default was substituted.
	Resolved bool   `json:"resolved"`
	Source   string `json:"source,omitempty"`
}

// NewResolver opens the GeoIP database if one is configured.
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	r := &Resolver{
		lookupURL: opts.LookupURL,
		client:    opts.Client,
		logger:    opts.Logger,
		cache:     make(map[string]string),
	}
	if r.lookupURL == "" {
		r.lookupURL = DefaultLookupURL
	}
	if r.client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultLookupTimeout
		}
		r.client = &http.Client{Timeout: timeout}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "fingerprint")

	if opts.GeoIPDB != "" {
		db, err := geoip2.Open(opts.GeoIPDB)
		if err != nil {
			return nil, fmt.Errorf("open geoip db: %w", err)
		}
		r.db = db
	}
	return r, nil
}

// Close releases the GeoIP database.
func (r *Resolver) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// DetectCountry returns the ISO country code for ip, or "" if it cannot be
// determined. Lookup failures are logged, never returned.
func (r *Resolver) DetectCountry(ctx context.Context, ip string) string {
	r.mu.Lock()
	if code, ok := r.cache[ip]; ok {
		r.mu.Unlock()
		return code
	}
	r.mu.Unlock()

	code := r.lookupDB(ip)
	if code == "" {
		code = r.lookupHTTP(ctx, ip)
	}

	r.mu.Lock()
	r.cache[ip] = code
	r.mu.Unlock()
	return code
}

func (r *Resolver) lookupDB(ip string) string {
	if r.db == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := r.db.Country(parsed)
	if err != nil {
		r.logger.Debug("geoip lookup failed", "ip", ip, "error", err)
		return ""
	}
	return record.Country.IsoCode
}

func (r *Resolver) lookupHTTP(ctx context.Context, ip string) string {
	if r.lookupURL == "off" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(r.lookupURL, ip), nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("country lookup failed", "ip", ip, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("country lookup failed", "ip", ip, "status", resp.StatusCode)
		return ""
	}

	var body struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return strings.ToUpper(body.CountryCode)
}

// Resolve picks a fingerprint for target, which may be an IP, a DataImpulse
// username or a proxy string. The username wins over the proxy host.
func (r *Resolver) Resolve(ctx context.Context, target string) Result {
	target = strings.TrimSpace(target)

	if net.ParseIP(target) != nil {
		return r.fromIP(ctx, target)
	}
	if !strings.Contains(target, "://") && !strings.Contains(target, ":") {
		if code := CountryFromDataImpulseUsername(target); code != "" {
			return result(code, "username")
		}
		return result("", "")
	}

	proxy, err := ParseProxy(target)
	if err != nil {
		r.logger.Debug("unparseable proxy", "error", err)
		return result("", "")
	}
	return r.ResolveProxy(ctx, proxy)
}

// ResolveProxy resolves a parsed proxy: username first, then the host.
func (r *Resolver) ResolveProxy(ctx context.Context, proxy ProxyConfig) Result {
	if code := CountryFromDataImpulseUsername(proxy.Username); code != "" {
		return result(code, "username")
	}

	host := proxy.Host()
	if host == "" {
		return result("", "")
	}
	if net.ParseIP(host) != nil {
		return r.fromIP(ctx, host)
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		r.logger.Debug("proxy host did not resolve", "host", host, "error", err)
		return result("", "")
	}
	return r.fromIP(ctx, addrs[0].IP.String())
}

func (r *Resolver) fromIP(ctx context.Context, ip string) Result {
	code := r.DetectCountry(ctx, ip)
	if _, ok := Lookup(code); !ok {
		return result("", "")
	}
	return result(code, "ip")
}

func result(code, source string) Result {
	if fp, ok := Lookup(code); ok {
		return Result{Country: fp.Country, Fingerprint: fp, Resolved: true, Source: source}
	}
	return Result{Country: DefaultCountry, Fingerprint: Default()}
}
