/**
 * Ethernet Parser.
 *
 * Handles the extraction of Data Link Layer (Layer 2) information,
 * specifically source and destination MAC addresses.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package parser

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// layer2Info holds the raw Layer 2 addresses extracted from a packet.
type layer2Info struct {
	SrcMAC string
	DstMAC string
}

// parseEthernet extracts Layer 2 information, or nil if no Ethernet frame.
func parseEthernet(packet gopacket.Packet) *layer2Info {
	ethernetLayer := packet.Layer(layers.LayerTypeEthernet)
	if ethernetLayer == nil {
		return nil
	}

	ethernet, ok := ethernetLayer.(*layers.Ethernet)
	if !ok {
		return nil
	}

	return &layer2Info{
		SrcMAC: ethernet.SrcMAC.String(),
		DstMAC: ethernet.DstMAC.String(),
	}
}
