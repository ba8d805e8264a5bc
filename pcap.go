package arpspoof

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

const (
	// snaplen comfortably covers an ethernet frame carrying an ARP packet.
	snaplen = 65536

	// readTimeout bounds each capture read so the delivery loop can notice
	// a closed device.
	readTimeout = 100 * time.Millisecond
)

// A PcapDevice is a Device backed by a libpcap capture handle.  Frames are
// delivered to the attached CaptureFunc by a goroutine draining the handle's
// packet source.
type PcapDevice struct {
	ifi    *net.Interface
	handle *pcap.Handle

	mu      sync.RWMutex
	capture CaptureFunc
	started bool
	closed  bool
	done    chan struct{}
}

var _ Device = &PcapDevice{}

// OpenPcap opens a live capture handle on the named network interface.
func OpenPcap(name string) (*PcapDevice, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}

	handle, err := pcap.OpenLive(name, snaplen, false, readTimeout)
	if err != nil {
		return nil, fmt.Errorf("opening capture on %s: %w", name, err)
	}

	return &PcapDevice{
		ifi:    ifi,
		handle: handle,
		done:   make(chan struct{}),
	}, nil
}

// HardwareAddr returns the MAC address of the device's interface.
func (d *PcapDevice) HardwareAddr() net.HardwareAddr { return d.ifi.HardwareAddr }

// Addrs returns the network addresses configured on the device's interface.
func (d *PcapDevice) Addrs() ([]net.Addr, error) { return d.ifi.Addrs() }

// SetFilter applies a BPF filter expression to the capture handle.
func (d *PcapDevice) SetFilter(expr string) error {
	if err := d.handle.SetBPFFilter(expr); err != nil {
		return fmt.Errorf("setting filter %q on %s: %w", expr, d.ifi.Name, err)
	}
	return nil
}

// Start launches the delivery goroutine.  Subsequent calls are no-ops, so a
// resolution that never stops delivery leaves a loop a later resolution on
// the same device reuses.
func (d *PcapDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.closed {
		return nil
	}
	d.started = true

	src := gopacket.NewPacketSource(d.handle, d.handle.LinkType())
	go d.deliver(src.Packets())

	return nil
}

// deliver drains the packet source, handing each captured frame to the
// attached callback until the device is closed.
func (d *PcapDevice) deliver(in <-chan gopacket.Packet) {
	for {
		select {
		case <-d.done:
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}

			d.mu.RLock()
			fn := d.capture
			d.mu.RUnlock()

			if fn != nil {
				fn(pkt.Data())
			}
		}
	}
}

// Attach installs fn as the frame-arrival callback.
func (d *PcapDevice) Attach(fn CaptureFunc) {
	d.mu.Lock()
	d.capture = fn
	d.mu.Unlock()
}

// Detach removes the frame-arrival callback.
func (d *PcapDevice) Detach() {
	d.mu.Lock()
	d.capture = nil
	d.mu.Unlock()
}

// Send injects one raw link frame through the capture handle.
func (d *PcapDevice) Send(frame []byte) error {
	if err := d.handle.WritePacketData(frame); err != nil {
		return fmt.Errorf("transmit on %s: %w", d.ifi.Name, err)
	}
	return nil
}

// Close stops the delivery goroutine and closes the capture handle.  Close
// is terminal: later calls are no-ops and Start on a closed device does not
// restart delivery.
func (d *PcapDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.done)
	d.mu.Unlock()

	if d.handle != nil {
		d.handle.Close()
	}
	return nil
}
