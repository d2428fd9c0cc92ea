/**
 * Transport Layer Parser.
 *
 * Decodes Layer 4 protocols (TCP, UDP), extracting port numbers.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package parser

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// layer4Info holds the raw Layer 4 ports and protocol name ("tcp"/"udp").
type layer4Info struct {
	SrcPort  uint16
	DstPort  uint16
	Protocol string
}

// parseTransport extracts Layer 4 information (TCP or UDP), or nil if absent.
func parseTransport(packet gopacket.Packet) *layer4Info {
	if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		tcp, ok := tcpLayer.(*layers.TCP)
		if !ok {
			return nil
		}
		return &layer4Info{
			SrcPort:  uint16(tcp.SrcPort),
			DstPort:  uint16(tcp.DstPort),
			Protocol: "tcp",
		}
	}

	if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			return nil
		}
		return &layer4Info{
			SrcPort:  uint16(udp.SrcPort),
			DstPort:  uint16(udp.DstPort),
			Protocol: "udp",
		}
	}

	return nil
}
