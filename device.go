package arpspoof

import (
	"errors"
	"net"
)

// ErrNoIPv4Addr is returned when a Device has no configured IPv4 address to
// use as the source of outgoing packets.
var ErrNoIPv4Addr = errors.New("no IPv4 address available for device")

// A CaptureFunc receives one raw link frame from a Device's delivery loop.
// It is invoked from the device's own delivery goroutine, concurrently with
// whatever operation attached it, and must return quickly: blocking inside a
// CaptureFunc stalls frame delivery for the entire device.
type CaptureFunc func(frame []byte)

// A Device is a shared capture and transmit handle on a single network
// interface.  At most one CaptureFunc is attached at a time; this package
// issues resolutions sequentially, so a single callback slot suffices.
type Device interface {
	// HardwareAddr returns the device's own MAC address.
	HardwareAddr() net.HardwareAddr

	// Addrs returns the network addresses configured on the device's
	// interface.
	Addrs() ([]net.Addr, error)

	// SetFilter restricts delivered frames to those matching a BPF filter
	// expression, such as "arp".
	SetFilter(expr string) error

	// Start begins frame delivery.  Captured frames are handed to the
	// attached CaptureFunc, if any.  Start is idempotent: callers may Start
	// before every probe without tearing down a running delivery loop.
	Start() error

	// Attach installs fn as the device's frame-arrival callback, replacing
	// any previous callback.
	Attach(fn CaptureFunc)

	// Detach removes the frame-arrival callback.  Delivery keeps running;
	// frames arriving with no callback attached are dropped.
	Detach()

	// Send transmits one raw link frame.
	Send(frame []byte) error

	// Close stops frame delivery and releases the underlying handle.
	Close() error
}

// FirstIPv4 returns the first IPv4 address configured on a Device, or
// ErrNoIPv4Addr if it has none.
func FirstIPv4(d Device) (net.IP, error) {
	addrs, err := d.Addrs()
	if err != nil {
		return nil, err
	}

	for _, a := range addrs {
		if a.Network() != "ip+net" {
			continue
		}

		ip, _, err := net.ParseCIDR(a.String())
		if err != nil {
			return nil, err
		}

		// "If ip is not an IPv4 address, To4 returns nil."
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}

	return nil, ErrNoIPv4Addr
}
