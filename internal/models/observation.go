/**
 * Observation Model.
 *
 * Canonical, best-effort representation of a single captured packet
 * after parsing. Fields are optional: a malformed or partially decoded
 * packet simply leaves the corresponding pointer nil.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package models

// Represents a normalized packet, output of the Parser and input to the Analyzer.
type Observation struct {
	SrcMAC   *string
	DstMAC   *string
	SrcIP    *string
	DstIP    *string
	Protocol *string // "tcp", "udp", decimal IP protocol number, or nil
	SrcPort  *uint16
	DstPort  *uint16
	Size     int
	// Timestamp is wall-clock seconds since epoch, per spec.md §3.
	Timestamp int64
}

// StringPtr is a convenience constructor for optional string fields.
func StringPtr(s string) *string { return &s }

// Uint16Ptr is a convenience constructor for optional port fields.
func Uint16Ptr(v uint16) *uint16 { return &v }

// BoolPtr is a convenience constructor for optional bool fields.
func BoolPtr(b bool) *bool { return &b }
