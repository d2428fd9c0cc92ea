/**
 * Finding Model.
 *
 * Annotated, persisted record derived from an Observation by the
 * Analyzer. Every annotation field is optional; absence means "not
 * evaluated", which must survive JSON round-tripping as an omitted
 * key rather than a false/null value. See spec.md §3.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package models

import "encoding/json"

// GeoInfo holds the resolved GeoIP annotation for a source address.
type GeoInfo struct {
	Country string `json:"country"`
	IP      string `json:"ip"`
}

// Finding is the superset of an Observation plus all annotation sub-steps
// produce. Nullable fields use pointers so encoding/json can omit them.
type Finding struct {
	SrcMAC   *string `json:"src_mac,omitempty"`
	DstMAC   *string `json:"dst_mac,omitempty"`
	SrcIP    *string `json:"src_ip,omitempty"`
	DstIP    *string `json:"dst_ip,omitempty"`
	Protocol *string `json:"protocol,omitempty"`
	SrcPort  *uint16 `json:"src_port,omitempty"`
	DstPort  *uint16 `json:"dst_port,omitempty"`
	Size     int     `json:"size"`

	GeoIP                 *GeoInfo `json:"geoip,omitempty"`
	CountryCode           *string  `json:"country_code,omitempty"`
	DangerousCountry      *bool    `json:"dangerous_country,omitempty"`
	ReverseDNS            *string  `json:"reverse_dns,omitempty"`
	ReverseDNSBlacklisted *bool    `json:"reverse_dns_blacklisted,omitempty"`
	DangerousProtocol     *bool    `json:"dangerous_protocol,omitempty"`
	NewDevice             *bool    `json:"new_device,omitempty"`
	UnapprovedDevice      *bool    `json:"unapproved_device,omitempty"`
	TrafficAnomaly        *bool    `json:"traffic_anomaly,omitempty"`
	OutOfHours            *bool    `json:"out_of_hours,omitempty"`

	// Timestamp is assigned by the Store at save time (local offset,
	// seconds precision, RFC 3339) -- it is NOT the capture timestamp.
	Timestamp string `json:"timestamp,omitempty"`
}

// NewFindingFromObservation copies the base fields of an Observation into
// a Finding, leaving every annotation field unset.
func NewFindingFromObservation(o Observation) Finding {
	return Finding{
		SrcMAC:   o.SrcMAC,
		DstMAC:   o.DstMAC,
		SrcIP:    o.SrcIP,
		DstIP:    o.DstIP,
		Protocol: o.Protocol,
		SrcPort:  o.SrcPort,
		DstPort:  o.DstPort,
		Size:     o.Size,
	}
}

// MergeFrom fills any still-unset field on f from other, preserving the
// first-non-null-wins policy spec.md §4.3 and §9 describe. Fields already
// set on f are never overwritten.
func (f *Finding) MergeFrom(other Finding) {
	if f.SrcMAC == nil {
		f.SrcMAC = other.SrcMAC
	}
	if f.DstMAC == nil {
		f.DstMAC = other.DstMAC
	}
	if f.SrcIP == nil {
		f.SrcIP = other.SrcIP
	}
	if f.DstIP == nil {
		f.DstIP = other.DstIP
	}
	if f.Protocol == nil {
		f.Protocol = other.Protocol
	}
	if f.SrcPort == nil {
		f.SrcPort = other.SrcPort
	}
	if f.DstPort == nil {
		f.DstPort = other.DstPort
	}
	if f.GeoIP == nil {
		f.GeoIP = other.GeoIP
	}
	if f.CountryCode == nil {
		f.CountryCode = other.CountryCode
	}
	if f.DangerousCountry == nil {
		f.DangerousCountry = other.DangerousCountry
	}
	if f.ReverseDNS == nil {
		f.ReverseDNS = other.ReverseDNS
	}
	if f.ReverseDNSBlacklisted == nil {
		f.ReverseDNSBlacklisted = other.ReverseDNSBlacklisted
	}
	if f.DangerousProtocol == nil {
		f.DangerousProtocol = other.DangerousProtocol
	}
	if f.NewDevice == nil {
		f.NewDevice = other.NewDevice
	}
	if f.UnapprovedDevice == nil {
		f.UnapprovedDevice = other.UnapprovedDevice
	}
	if f.TrafficAnomaly == nil {
		f.TrafficAnomaly = other.TrafficAnomaly
	}
	if f.OutOfHours == nil {
		f.OutOfHours = other.OutOfHours
	}
}

// SourceKey returns the traffic-accumulator key spec.md §4.3.1 describes:
// src_ip, falling back to src_mac, falling back to "unknown".
func (f *Finding) SourceKey() string {
	if f.SrcIP != nil && *f.SrcIP != "" {
		return *f.SrcIP
	}
	if f.SrcMAC != nil && *f.SrcMAC != "" {
		return *f.SrcMAC
	}
	return "unknown"
}

// Encode returns the finding as compact JSON, used both for the
// `results.data` column and for WebSocket fan-out.
func (f *Finding) Encode() ([]byte, error) {
	return json.Marshal(f)
}
