/**
 * Reverse DNS Resolver.
 *
 * Resolves an IP to its FQDN, caching positive results in a bounded LRU
 * (capacity 256) with an optional TTL -- negative results are never
 * cached, so a miss is retried on every call per spec.md §4.2/§8.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package resolver

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const reverseDNSCacheCapacity = 256

type cacheEntry struct {
	host      string
	expiresAt time.Time
}

// DNSResolver implements the ReverseDNSResolver interface with an
// LRU cache in front of net.Resolver.LookupAddr.
type DNSResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
	ttl      time.Duration // zero means "cache forever"

	mu    sync.Mutex
	cache *lru.Cache[string, cacheEntry]
}

// NewDNSResolver builds a resolver with the given per-lookup timeout and
// cache TTL (zero TTL means cached entries never expire on their own).
func NewDNSResolver(timeout, ttl time.Duration) *DNSResolver {
	cache, _ := lru.New[string, cacheEntry](reverseDNSCacheCapacity)
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &DNSResolver{
		resolver: &net.Resolver{},
		timeout:  timeout,
		ttl:      ttl,
		cache:    cache,
	}
}

// Lookup resolves ip to a lowercased FQDN without a trailing dot.
func (r *DNSResolver) Lookup(ip string) (string, bool) {
	r.mu.Lock()
	if entry, ok := r.cache.Get(ip); ok {
		if r.ttl <= 0 || time.Now().Before(entry.expiresAt) {
			r.mu.Unlock()
			return entry.host, true
		}
		r.cache.Remove(ip)
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	names, err := r.resolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		// Negative results are never cached: spec.md §4.2 requires a
		// subsequent lookup to retry rather than stick with a miss.
		return "", false
	}

	host := strings.ToLower(strings.TrimSuffix(names[0], "."))

	r.mu.Lock()
	r.cache.Add(ip, cacheEntry{host: host, expiresAt: time.Now().Add(r.ttl)})
	r.mu.Unlock()

	return host, true
}
