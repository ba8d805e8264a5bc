package arpspoof

import (
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/mdlayher/raw"
)

// A RawDevice is a Device backed by a raw ARP socket, for hosts without
// libpcap.  The socket is bound to the ARP EtherType, so every delivered
// frame is already an ARP frame and SetFilter has nothing left to restrict.
type RawDevice struct {
	ifi *net.Interface
	p   net.PacketConn

	mu      sync.RWMutex
	capture CaptureFunc
	started bool
}

var _ Device = &RawDevice{}

// OpenRaw binds a raw socket for ARP traffic on the given interface.
func OpenRaw(ifi *net.Interface) (*RawDevice, error) {
	p, err := raw.ListenPacket(ifi, uint16(syscall.ETH_P_ARP), nil)
	if err != nil {
		return nil, fmt.Errorf("opening raw socket on %s: %w", ifi.Name, err)
	}

	return newRawDevice(ifi, p), nil
}

// newRawDevice wraps an already-open packet connection, so tests can supply
// their own.
func newRawDevice(ifi *net.Interface, p net.PacketConn) *RawDevice {
	return &RawDevice{
		ifi: ifi,
		p:   p,
	}
}

// HardwareAddr returns the MAC address of the device's interface.
func (d *RawDevice) HardwareAddr() net.HardwareAddr { return d.ifi.HardwareAddr }

// Addrs returns the network addresses configured on the device's interface.
func (d *RawDevice) Addrs() ([]net.Addr, error) { return d.ifi.Addrs() }

// SetFilter is a no-op: the socket already delivers only ARP frames.
func (d *RawDevice) SetFilter(expr string) error { return nil }

// Start launches the delivery goroutine.  Subsequent calls are no-ops.
func (d *RawDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}
	d.started = true

	go d.deliver()
	return nil
}

// deliver reads frames from the socket and hands a copy of each to the
// attached callback.  A read error, such as the socket closing, ends the
// loop.
func (d *RawDevice) deliver() {
	buf := make([]byte, 128)
	for {
		n, _, err := d.p.ReadFrom(buf)
		if err != nil {
			return
		}

		d.mu.RLock()
		fn := d.capture
		d.mu.RUnlock()

		if fn == nil {
			continue
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		fn(frame)
	}
}

// Attach installs fn as the frame-arrival callback.
func (d *RawDevice) Attach(fn CaptureFunc) {
	d.mu.Lock()
	d.capture = fn
	d.mu.Unlock()
}

// Detach removes the frame-arrival callback.
func (d *RawDevice) Detach() {
	d.mu.Lock()
	d.capture = nil
	d.mu.Unlock()
}

// Send transmits one raw link frame to the hardware address named in its
// destination field.
func (d *RawDevice) Send(frame []byte) error {
	if len(frame) < 6 {
		return io.ErrUnexpectedEOF
	}

	dst := make(net.HardwareAddr, 6)
	copy(dst, frame[:6])

	if _, err := d.p.WriteTo(frame, &raw.Addr{HardwareAddr: dst}); err != nil {
		return fmt.Errorf("transmit on %s: %w", d.ifi.Name, err)
	}
	return nil
}

// Close closes the underlying socket, which also ends the delivery loop.
func (d *RawDevice) Close() error {
	return d.p.Close()
}
