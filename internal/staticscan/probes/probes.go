/**
 * Static-Scan Probe Stubs.
 *
 * Placeholder implementations of the fixed probe roster
 * original_source/src/scans/__init__.py enumerates: ports, os_banner,
 * upnp, arp_spoof, dhcp, dns, ssl_cert, smb_netbios. Real network
 * scanning is an external collaborator per spec.md §1 ("individual
 * probe implementations are treated as opaque callables returning a
 * result record") -- these stubs exist so internal/staticscan has a
 * concrete roster to dispatch and order deterministically.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package probes

import (
	"context"

	"github.com/netsentry/netsentry/internal/staticscan"
)

// Registry returns the fixed probe roster in registration order. The
// Orchestrator itself re-sorts so "ports" and "os_banner" lead
// (spec.md §4.7); registration order here only matters for the
// remainder, which the Orchestrator keeps stable.
func Registry() []staticscan.Probe {
	return []staticscan.Probe{
		{Name: "ports", Scan: scanPorts},
		{Name: "os_banner", Scan: scanOSBanner},
		{Name: "upnp", Scan: scanUPnP},
		{Name: "arp_spoof", Scan: scanARPSpoof},
		{Name: "dhcp", Scan: scanDHCP},
		{Name: "dns", Scan: scanDNS},
		{Name: "ssl_cert", Scan: scanSSLCert},
		{Name: "smb_netbios", Scan: scanSMBNetbios},
	}
}

func emptyResult(category string) staticscan.Result {
	return staticscan.Result{Category: category, Score: 0, Details: map[string]any{}}
}

func scanPorts(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("ports")
	r.Details["open_ports"] = []int{}
	return r, nil
}

func scanOSBanner(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("os_banner")
	r.Details["banners"] = map[string]string{}
	return r, nil
}

func scanUPnP(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("upnp")
	r.Details["devices"] = []string{}
	return r, nil
}

func scanARPSpoof(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("arp_spoof")
	r.Details["alerts"] = []string{}
	return r, nil
}

func scanDHCP(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("dhcp")
	r.Details["servers"] = []string{}
	r.Details["warnings"] = []string{}
	return r, nil
}

func scanDNS(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("dns")
	r.Details["answers"] = []string{}
	return r, nil
}

func scanSSLCert(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("ssl_cert")
	r.Details["message"] = "no ssl certificate issues found"
	return r, nil
}

// scanSMBNetbios mirrors the teacher's smb_netbios stub, which stays a
// no-op when the impacket-equivalent dependency isn't available --
// here there simply is no Go equivalent wired, so it always returns
// the placeholder shape.
func scanSMBNetbios(ctx context.Context) (staticscan.Result, error) {
	r := emptyResult("smb_netbios")
	r.Details["netbios_names"] = []string{}
	return r, nil
}
