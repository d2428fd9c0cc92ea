/**
 * Resolver Interfaces.
 *
 * Narrow lookup capabilities injected into the Analyzer so it can be
 * tested without network I/O. Every implementation must never raise:
 * a failed lookup resolves to "not found", not an error. See
 * spec.md §4.2/§9.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package resolver

// CountryLookup resolves a source IP to an ISO-3166-1 alpha-2 country
// code, uppercase, or ("", false) if unresolved.
type CountryLookup interface {
	Lookup(ip string) (code string, ok bool)
}

// ReverseDNSResolver resolves an IP to a lowercased FQDN without a
// trailing dot, or ("", false) if unresolved.
type ReverseDNSResolver interface {
	Lookup(ip string) (host string, ok bool)
}

// VendorLookup resolves a MAC's OUI prefix to a vendor name, or
// ("", false) if unresolved.
type VendorLookup interface {
	Lookup(mac string) (vendor string, ok bool)
}

// BlacklistMembership is a pure predicate over a set of blacklisted hosts.
type BlacklistMembership interface {
	Contains(host string) bool
}
