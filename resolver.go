package arpspoof

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mdlayher/ethernet"
)

// Default timing for Resolver fields left zero.
const (
	// DefaultTimeout is how long Resolve waits for a matching reply before
	// concluding the host is down.
	DefaultTimeout = 1 * time.Second

	// DefaultSettleDelay is how long Resolve waits between starting frame
	// delivery and transmitting the probe.  Capture subsystems begin
	// listening asynchronously; transmitting immediately can lose a fast
	// reply.
	DefaultSettleDelay = 500 * time.Millisecond
)

// ErrResolveTimeout is returned by Resolve when no matching reply arrives
// within the resolver's timeout, typically because the host is down.
var ErrResolveTimeout = errors.New("timeout waiting for ARP reply")

// A Resolver resolves the hardware address behind an IPv4 address by
// broadcasting an ARP request on a Device and waiting for the matching
// reply.
//
// The zero value is ready to use with default timing.
type Resolver struct {
	// Timeout bounds the wait for a matching reply.  Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// SettleDelay is the pause between starting frame delivery and
	// transmitting the probe.  Zero means DefaultSettleDelay.
	SettleDelay time.Duration

	// Notify, if non-nil, receives an Event for each probe sent and each
	// reply matched.
	Notify EventFunc
}

// Resolve broadcasts one ARP request for ip on dev and waits for the reply,
// returning the hardware address ip resolves to.  The wait is a race among
// the first matching reply, the resolver's timeout (ErrResolveTimeout), and
// ctx's cancellation (ctx.Err, wrapped); exactly one wins.  Replies whose
// sender IP differs from ip never fulfill the wait, and replies arriving
// after the first match are ignored.
//
// Resolve attaches dev's frame-arrival callback for its own use and detaches
// it on every return path.  It deliberately does not stop frame delivery:
// stopping would tear down capture under a later Resolve reusing the same
// device, so the delivery loop is left running.
//
// Callers must not issue concurrent resolutions on one device; the single
// callback slot is sized for sequential use.
func (r *Resolver) Resolve(ctx context.Context, dev Device, ip net.IP) (net.HardwareAddr, error) {
	srcIP, err := FirstIPv4(dev)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ip, err)
	}

	p, err := NewPacket(OperationRequest, dev.HardwareAddr(), srcIP, zeroMAC, ip)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ip, err)
	}
	frame, err := marshalFrame(p, ethernet.Broadcast)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ip, err)
	}

	// One-shot result slot.  The callback runs on the device's delivery
	// goroutine; the buffered channel plus non-blocking send gives
	// at-most-once fulfillment without further locking.
	result := make(chan net.HardwareAddr, 1)
	dev.Attach(func(b []byte) {
		reply, err := parseFrame(b)
		if err != nil {
			// Frames that are not well-formed ARP are not ours to judge.
			return
		}
		if reply.Operation != OperationReply || !reply.SenderIP.Equal(ip) {
			return
		}

		select {
		case result <- reply.SenderMAC:
		default:
			// Already fulfilled; later matches are observed but ignored.
		}
	})
	defer dev.Detach()

	// Delivery must be running before the probe goes out, or the reply can
	// beat the listener.
	if err := dev.SetFilter("arp"); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ip, err)
	}
	if err := dev.Start(); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ip, err)
	}

	settle := r.SettleDelay
	if settle == 0 {
		settle = DefaultSettleDelay
	}
	select {
	case <-time.After(settle):
	case <-ctx.Done():
		return nil, fmt.Errorf("resolving %s: %w", ip, ctx.Err())
	}

	if err := dev.Send(frame); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ip, err)
	}
	r.notify(Event{Time: time.Now(), Type: EventProbeSent, IP: ip})

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case hw := <-result:
		r.notify(Event{Time: time.Now(), Type: EventReplyMatched, IP: ip, HardwareAddr: hw})
		return hw, nil
	case <-t.C:
		return nil, fmt.Errorf("resolving %s: %w", ip, ErrResolveTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("resolving %s: %w", ip, ctx.Err())
	}
}

func (r *Resolver) notify(e Event) {
	if r.Notify != nil {
		r.Notify(e)
	}
}
