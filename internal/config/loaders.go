/**
 * Seed-Data Loaders.
 *
 * Loads the two small JSON seed files spec.md §6 lists alongside the
 * config file itself: the approved-device allowlist and the
 * dangerous-country set. Both are loaded once at startup into
 * immutable maps (spec.md §3's "loaded once at startup... immutable
 * during runtime" for the approved-device set); a missing or malformed
 * file yields an empty map rather than an error, matching the rest of
 * this package's "defaults over fatal" posture.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package config

import (
	"encoding/json"
	"os"
	"strings"
)

// LoadApprovedMacs reads path, a JSON array of MAC address strings, into
// a lowercased set. A missing/malformed file yields an empty set (no
// device is approved).
func LoadApprovedMacs(path string) map[string]struct{} {
	out := map[string]struct{}{}
	if path == "" {
		return out
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	var macs []string
	if err := json.Unmarshal(raw, &macs); err != nil {
		return out
	}
	for _, m := range macs {
		out[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return out
}

// LoadDangerousCountries reads path, a JSON array of ISO-3166-1 alpha-2
// country codes, into an uppercased set. A missing/malformed file
// yields an empty set (no country is treated as dangerous).
func LoadDangerousCountries(path string) map[string]struct{} {
	out := map[string]struct{}{}
	if path == "" {
		return out
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	var codes []string
	if err := json.Unmarshal(raw, &codes); err != nil {
		return out
	}
	for _, c := range codes {
		out[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return out
}
