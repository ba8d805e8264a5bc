package arpspoof

import (
	"errors"
	"net"
	"testing"

	"github.com/mdlayher/ethernet"
)

var (
	spoofTargetIP   = net.ParseIP("10.0.0.5")
	spoofTargetMAC  = net.HardwareAddr{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}
	spoofGatewayIP  = net.ParseIP("10.0.0.1")
	spoofGatewayMAC = net.HardwareAddr{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}
)

func TestSpooferSpoof(t *testing.T) {
	dev := newMemDevice()

	s := &Spoofer{}
	if err := s.Spoof(dev, spoofTargetIP, spoofTargetMAC, spoofGatewayIP, spoofGatewayMAC); err != nil {
		t.Fatal(err)
	}

	sent := dev.sentFrames()
	if want, got := 2, len(sent); want != got {
		t.Fatalf("unexpected number of frames sent: %v != %v", want, got)
	}

	// Both forged claims re-map an IP to the device's own MAC, and both are
	// link-addressed to the target: one call poisons only the target's
	// table.
	wantClaims := []string{
		spoofGatewayIP.String(),
		spoofTargetIP.String(),
	}

	for i, b := range sent {
		f := new(ethernet.Frame)
		if err := f.UnmarshalBinary(b); err != nil {
			t.Fatal(err)
		}
		if want, got := spoofTargetMAC.String(), f.Destination.String(); want != got {
			t.Fatalf("frame %d, unexpected link destination: %v != %v", i, want, got)
		}

		p := new(Packet)
		if err := p.UnmarshalBinary(f.Payload); err != nil {
			t.Fatal(err)
		}
		if want, got := OperationReply, p.Operation; want != got {
			t.Fatalf("frame %d, unexpected operation: %v != %v", i, want, got)
		}
		if want, got := wantClaims[i], p.SenderIP.String(); want != got {
			t.Fatalf("frame %d, unexpected spoofed IP: %v != %v", i, want, got)
		}
		if want, got := dev.hw.String(), p.SenderMAC.String(); want != got {
			t.Fatalf("frame %d, unexpected asserted MAC: %v != %v", i, want, got)
		}
		if want, got := spoofTargetIP.String(), p.TargetIP.String(); want != got {
			t.Fatalf("frame %d, unexpected target IP: %v != %v", i, want, got)
		}
		if want, got := spoofTargetMAC.String(), p.TargetMAC.String(); want != got {
			t.Fatalf("frame %d, unexpected target MAC: %v != %v", i, want, got)
		}
	}
}

func TestSpooferSpoofFirstFailureDoesNotShortCircuit(t *testing.T) {
	errTransmit := errors.New("transmit error")

	dev := newMemDevice()
	dev.sendErrs = []error{errTransmit, nil}

	s := &Spoofer{}
	err := s.Spoof(dev, spoofTargetIP, spoofTargetMAC, spoofGatewayIP, spoofGatewayMAC)
	if !errors.Is(err, errTransmit) {
		t.Fatalf("unexpected error: %v", err)
	}

	if want, got := 2, dev.attempts; want != got {
		t.Fatalf("unexpected number of transmit attempts: %v != %v", want, got)
	}
	if want, got := 1, len(dev.sentFrames()); want != got {
		t.Fatalf("unexpected number of frames sent: %v != %v", want, got)
	}
}

func TestSpooferSpoofEvents(t *testing.T) {
	dev := newMemDevice()

	var events []Event
	s := &Spoofer{
		Notify: func(e Event) { events = append(events, e) },
	}
	if err := s.Spoof(dev, spoofTargetIP, spoofTargetMAC, spoofGatewayIP, spoofGatewayMAC); err != nil {
		t.Fatal(err)
	}

	if want, got := 2, len(events); want != got {
		t.Fatalf("unexpected number of events: %v != %v", want, got)
	}
	for i, e := range events {
		if want, got := EventFrameForged, e.Type; want != got {
			t.Fatalf("event %d, unexpected type: %v != %v", i, want, got)
		}
		if want, got := dev.hw.String(), e.HardwareAddr.String(); want != got {
			t.Fatalf("event %d, unexpected hardware address: %v != %v", i, want, got)
		}
		if e.Time.IsZero() {
			t.Fatalf("event %d, zero timestamp", i)
		}
	}
	if want, got := spoofGatewayIP.String(), events[0].IP.String(); want != got {
		t.Fatalf("unexpected first deceived IP: %v != %v", want, got)
	}
	if want, got := spoofTargetIP.String(), events[1].IP.String(); want != got {
		t.Fatalf("unexpected second deceived IP: %v != %v", want, got)
	}
}

func TestSpooferRestore(t *testing.T) {
	dev := newMemDevice()

	s := &Spoofer{}
	if err := s.Restore(dev, spoofTargetIP, spoofTargetMAC, spoofGatewayIP, spoofGatewayMAC); err != nil {
		t.Fatal(err)
	}

	sent := dev.sentFrames()
	if want, got := 2, len(sent); want != got {
		t.Fatalf("unexpected number of frames sent: %v != %v", want, got)
	}

	// First frame heals the target's view of the gateway, second the
	// gateway's view of the target.
	var wantBindings = []struct {
		dst       net.HardwareAddr
		senderIP  net.IP
		senderMAC net.HardwareAddr
	}{
		{dst: spoofTargetMAC, senderIP: spoofGatewayIP, senderMAC: spoofGatewayMAC},
		{dst: spoofGatewayMAC, senderIP: spoofTargetIP, senderMAC: spoofTargetMAC},
	}

	for i, b := range sent {
		f := new(ethernet.Frame)
		if err := f.UnmarshalBinary(b); err != nil {
			t.Fatal(err)
		}
		if want, got := wantBindings[i].dst.String(), f.Destination.String(); want != got {
			t.Fatalf("frame %d, unexpected link destination: %v != %v", i, want, got)
		}

		p := new(Packet)
		if err := p.UnmarshalBinary(f.Payload); err != nil {
			t.Fatal(err)
		}
		if want, got := wantBindings[i].senderIP.String(), p.SenderIP.String(); want != got {
			t.Fatalf("frame %d, unexpected sender IP: %v != %v", i, want, got)
		}
		if want, got := wantBindings[i].senderMAC.String(), p.SenderMAC.String(); want != got {
			t.Fatalf("frame %d, unexpected sender MAC: %v != %v", i, want, got)
		}
	}
}
