/**
 * Packet Parser.
 *
 * Normalizes a raw captured packet into a canonical Observation record.
 * Extraction is best-effort: a malformed or partially decoded packet
 * simply yields an Observation with fewer fields set. Parse never
 * panics and never returns an error -- see spec.md §4.1.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package parser

import (
	"time"

	"github.com/google/gopacket"
	"github.com/netsentry/netsentry/internal/models"
)

// Parse extracts a best-effort Observation from a raw packet. Protocol
// derivation follows the fixed precedence spec.md §4.1 describes: TCP,
// then UDP, then the decimal IP protocol number, then nil -- never an
// application-layer label, since that requires deep packet inspection
// this system explicitly excludes.
func Parse(packet gopacket.Packet) (obs models.Observation) {
	defer func() {
		// A malformed packet must never crash the capture loop; any
		// panic inside a gopacket layer decoder degrades to a bare
		// Observation instead.
		if r := recover(); r != nil {
			obs = models.Observation{Size: obs.Size, Timestamp: obs.Timestamp}
		}
	}()

	meta := packet.Metadata()
	obs.Size = meta.Length
	if !meta.Timestamp.IsZero() {
		obs.Timestamp = meta.Timestamp.Unix()
	} else {
		obs.Timestamp = time.Now().Unix()
	}

	if l2 := parseEthernet(packet); l2 != nil {
		obs.SrcMAC = models.StringPtr(l2.SrcMAC)
		obs.DstMAC = models.StringPtr(l2.DstMAC)
	}

	l3 := parseIP(packet)
	if l3 != nil {
		obs.SrcIP = models.StringPtr(l3.SrcIP)
		obs.DstIP = models.StringPtr(l3.DstIP)
	}

	if l4 := parseTransport(packet); l4 != nil {
		obs.SrcPort = models.Uint16Ptr(l4.SrcPort)
		obs.DstPort = models.Uint16Ptr(l4.DstPort)
		obs.Protocol = models.StringPtr(l4.Protocol)
	} else if l3 != nil {
		obs.Protocol = models.StringPtr(l3.ProtoNum)
	}

	return obs
}
