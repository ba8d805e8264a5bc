package arpspoof

import (
	"errors"
	"net"

	"github.com/mdlayher/ethernet"
)

// errNotARP is returned by parseFrame for link frames whose EtherType is not
// ARP.
var errNotARP = errors.New("not an ARP frame")

// marshalFrame wraps an ARP packet in an ethernet frame bound for dst and
// marshals both, producing a raw frame ready for Device.Send.  The frame's
// source address is the packet's sender MAC.
func marshalFrame(p *Packet, dst net.HardwareAddr) ([]byte, error) {
	pb, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}

	f := &ethernet.Frame{
		Destination: dst,
		Source:      p.SenderMAC,
		EtherType:   ethernet.EtherTypeARP,
		Payload:     pb,
	}

	return f.MarshalBinary()
}

// parseFrame unmarshals a raw link frame and extracts its ARP payload.
func parseFrame(b []byte) (*Packet, error) {
	f := new(ethernet.Frame)
	if err := f.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	if f.EtherType != ethernet.EtherTypeARP {
		return nil, errNotARP
	}

	p := new(Packet)
	if err := p.UnmarshalBinary(f.Payload); err != nil {
		return nil, err
	}

	return p, nil
}
