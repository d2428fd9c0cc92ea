/**
 * MAC Address Vendor Lookup.
 *
 * Resolves MAC OUI prefixes to manufacturer names: a loadable local
 * table first (data/oui.txt, matched on the 24-bit prefix, separators
 * stripped, case-insensitive), falling back to a remote API. Adapted
 * from netscope's internal/enricher/vendor.go embedded-table pattern,
 * generalized to load the table from a file instead of a compiled-in
 * map. See spec.md §4.2/§6.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package resolver

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// VendorResolver implements VendorLookup.
type VendorResolver struct {
	httpClient *http.Client
	httpURL    string // e.g. "https://api.macvendors.com/%s"; "" disables fallback
	log        *zap.Logger

	mu      sync.RWMutex
	ouiMap  map[string]string
}

// NewVendorResolver loads the OUI table from path (missing/malformed
// file silently yields an empty table -- the remote fallback still
// works) and configures the optional HTTP fallback.
func NewVendorResolver(path, httpURL string, log *zap.Logger) *VendorResolver {
	if log == nil {
		log = zap.NewNop()
	}
	v := &VendorResolver{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		httpURL:    httpURL,
		log:        log,
		ouiMap:     make(map[string]string),
	}
	if path != "" {
		if err := v.loadFile(path); err != nil {
			log.Info("vendor: failed to load OUI table", zap.String("path", path), zap.Error(err))
		}
	}
	return v
}

func (v *VendorResolver) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	v.mu.Lock()
	defer v.mu.Unlock()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		prefix := normalizeMACPrefix(parts[0])
		vendor := strings.TrimSpace(parts[1])
		if prefix != "" && vendor != "" {
			v.ouiMap[prefix] = vendor
		}
	}
	return scanner.Err()
}

func normalizeMACPrefix(mac string) string {
	clean := strings.ToUpper(mac)
	clean = strings.ReplaceAll(clean, ":", "")
	clean = strings.ReplaceAll(clean, "-", "")
	if len(clean) < 6 {
		return ""
	}
	return clean[:6]
}

// Lookup resolves mac's OUI prefix to a vendor name.
func (v *VendorResolver) Lookup(mac string) (string, bool) {
	prefix := normalizeMACPrefix(mac)
	if prefix == "" {
		return "", false
	}

	v.mu.RLock()
	vendor, ok := v.ouiMap[prefix]
	v.mu.RUnlock()
	if ok {
		return vendor, true
	}

	if v.httpURL == "" {
		return "", false
	}
	return v.lookupHTTP(mac)
}

func (v *VendorResolver) lookupHTTP(mac string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(v.httpURL, "%s", mac, 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.log.Info("vendor: http lookup failed", zap.String("mac", mac), zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", false
	}
	vendor := strings.TrimSpace(string(body))
	if vendor == "" {
		return "", false
	}
	return vendor, true
}
