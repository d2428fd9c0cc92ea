/**
 * IP Protocol Parser.
 *
 * Handles the extraction of Network Layer (Layer 3) information,
 * supporting both IPv4 and IPv6 addressing schemes.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package parser

import (
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// layer3Info holds the raw Layer 3 addresses and IP protocol number.
type layer3Info struct {
	SrcIP string
	DstIP string
	// ProtoNum is the decimal IP protocol number (e.g. "6" for TCP),
	// used by the Parser only when no L4 layer decodes.
	ProtoNum string
}

// parseIP extracts Layer 3 information (IPv4 or IPv6), or nil if absent.
func parseIP(packet gopacket.Packet) *layer3Info {
	if ipv4Layer := packet.Layer(layers.LayerTypeIPv4); ipv4Layer != nil {
		ipv4, ok := ipv4Layer.(*layers.IPv4)
		if !ok {
			return nil
		}
		return &layer3Info{
			SrcIP:    ipv4.SrcIP.String(),
			DstIP:    ipv4.DstIP.String(),
			ProtoNum: strconv.Itoa(int(ipv4.Protocol)),
		}
	}

	if ipv6Layer := packet.Layer(layers.LayerTypeIPv6); ipv6Layer != nil {
		ipv6, ok := ipv6Layer.(*layers.IPv6)
		if !ok {
			return nil
		}
		return &layer3Info{
			SrcIP:    ipv6.SrcIP.String(),
			DstIP:    ipv6.DstIP.String(),
			ProtoNum: strconv.Itoa(int(ipv6.NextHeader)),
		}
	}

	return nil
}
