// Package arpspoof implements active ARP address resolution and ARP cache
// poisoning on a local network segment, redirecting victim traffic through
// the local host.
package arpspoof

import (
	"net"
	"time"
)

// An EventType identifies an observable action taken by a Resolver or a
// Spoofer.
type EventType int

// EventType constants for each action the package reports.
const (
	// EventProbeSent indicates an ARP request was broadcast.
	EventProbeSent EventType = iota

	// EventReplyMatched indicates a reply matching an outstanding probe
	// arrived.
	EventReplyMatched

	// EventFrameForged indicates a forged ARP reply was transmitted.
	EventFrameForged

	// EventBindingRestored indicates a genuine ARP reply re-asserting a true
	// address binding was transmitted.
	EventBindingRestored
)

// String returns the name of an EventType.
func (t EventType) String() string {
	switch t {
	case EventProbeSent:
		return "probe sent"
	case EventReplyMatched:
		return "reply matched"
	case EventFrameForged:
		return "frame forged"
	case EventBindingRestored:
		return "binding restored"
	default:
		return "unknown"
	}
}

// An Event records one observable action: the time it happened, the IPv4
// address concerned, and the hardware address it now resolves to.  Events
// exist for audit and progress reporting, and never affect control flow.
type Event struct {
	Time         time.Time
	Type         EventType
	IP           net.IP
	HardwareAddr net.HardwareAddr
}

// An EventFunc receives Events as they occur.  It is invoked synchronously
// from the emitting operation and must not block.
type EventFunc func(Event)
