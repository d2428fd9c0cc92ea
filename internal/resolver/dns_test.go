/**
 * Reverse DNS Resolver Tests.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package resolver

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// These tests drive the cache directly instead of the underlying
// net.Resolver, since net.Resolver itself can't be mocked without a
// real DNS round trip.
func TestDNSResolverCachesPositiveResult(t *testing.T) {
	r := NewDNSResolver(2*time.Second, time.Hour)

	r.mu.Lock()
	r.cache.Add("1.1.1.1", cacheEntry{host: "host.example", expiresAt: time.Now().Add(time.Hour)})
	r.mu.Unlock()

	host, ok := r.Lookup("1.1.1.1")
	if !ok || host != "host.example" {
		t.Fatalf("expected cached host.example, got %q ok=%v", host, ok)
	}
}

func TestDNSResolverExpiresAfterTTL(t *testing.T) {
	r := NewDNSResolver(2*time.Second, time.Millisecond)

	r.mu.Lock()
	r.cache.Add("1.1.1.1", cacheEntry{host: "host.example", expiresAt: time.Now().Add(-time.Second)})
	r.mu.Unlock()

	r.mu.Lock()
	_, stillPresent := r.cache.Get("1.1.1.1")
	r.mu.Unlock()
	if !stillPresent {
		t.Fatalf("expected expired entry to still be present in the LRU until an explicit lookup evicts it")
	}

	if host, _ := r.Lookup("1.1.1.1"); host == "host.example" {
		t.Fatalf("expected expired entry not to be served from the cache")
	}
}

func TestBlacklistSetMissingFileIsEmpty(t *testing.T) {
	b := NewBlacklistSet("/nonexistent/path/blacklist.txt")
	if b.Contains("evil.example") {
		t.Fatalf("expected empty set for missing file")
	}
}

func TestBlacklistSetLowercasesAndSkipsComments(t *testing.T) {
	path := writeTempFile(t, "# comment\n\nEVIL.EXAMPLE\nbad.test\n")
	b := NewBlacklistSet(path)
	if !b.Contains("evil.example") {
		t.Fatalf("expected evil.example to be blacklisted (case-insensitive)")
	}
	if !b.Contains("bad.test") {
		t.Fatalf("expected bad.test to be blacklisted")
	}
	if b.Contains("comment") {
		t.Fatalf("comment line must not be treated as an entry")
	}
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}
