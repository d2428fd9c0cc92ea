/**
 * GeoIP Country Resolver.
 *
 * Resolves a source IP to its ISO-3166-1 alpha-2 country code. Consults
 * a local MaxMind GeoLite2 database first; on miss or error, falls back
 * to an HTTP lookup service; on total failure, returns unresolved.
 * Grounded on the two-tier fallback
 * original_source/src/dynamic_scan/analyze.py:geoip_lookup describes.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package resolver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// GeoIPResolver implements CountryLookup.
type GeoIPResolver struct {
	db         *geoip2.Reader
	httpClient *http.Client
	httpURL    string // e.g. "https://ipapi.co/%s/json/"; "" disables fallback
	log        *zap.Logger
}

// NewGeoIPResolver opens the local MMDB at dbPath (if non-empty) and
// configures the HTTP fallback endpoint. dbPath failing to open is not
// fatal -- the resolver simply relies on the HTTP fallback alone.
func NewGeoIPResolver(dbPath, httpURL string, log *zap.Logger) *GeoIPResolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &GeoIPResolver{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		httpURL:    httpURL,
		log:        log,
	}
	if dbPath != "" {
		db, err := geoip2.Open(dbPath)
		if err != nil {
			log.Info("geoip: local database unavailable, HTTP fallback only", zap.Error(err))
		} else {
			r.db = db
		}
	}
	return r
}

// Close releases the local database handle, if one is open.
func (r *GeoIPResolver) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Lookup resolves ip to an uppercase ISO-3166-1 alpha-2 country code.
func (r *GeoIPResolver) Lookup(ipStr string) (string, bool) {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "", false
	}

	if r.db != nil {
		record, err := r.db.Country(ip)
		if err == nil && record.Country.IsoCode != "" {
			return strings.ToUpper(record.Country.IsoCode), true
		}
	}

	if r.httpURL == "" {
		return "", false
	}
	return r.lookupHTTP(ipStr)
}

type geoHTTPResponse struct {
	CountryCode string `json:"country_code"`
}

func (r *GeoIPResolver) lookupHTTP(ip string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(r.httpURL, "%s", ip, 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Info("geoip: http lookup failed", zap.String("ip", ip), zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var body geoHTTPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}
	if body.CountryCode == "" {
		return "", false
	}
	return strings.ToUpper(body.CountryCode), true
}
