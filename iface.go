package arpspoof

import (
	"fmt"
	"net"
)

// InterfaceByAddr returns the network interface whose configured IPv4
// subnet contains ip, for callers that want to pick a capture interface
// from a target address alone.
func InterfaceByAddr(ip net.IP) (*net.Interface, error) {
	ifis, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for i := range ifis {
		addrs, err := ifis[i].Addrs()
		if err != nil {
			continue
		}

		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			if ipnet.Contains(ip) {
				return &ifis[i], nil
			}
		}
	}

	return nil, fmt.Errorf("no interface on the same network as %s", ip)
}
