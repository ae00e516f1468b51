// Package network enumerates local interfaces that can carry Art-Net
// broadcast traffic, for the monitor dashboard and startup logging.
package network

import (
	"net"
	"strings"
)

// InterfaceOption is one candidate network for Art-Net output.
type InterfaceOption struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Broadcast     string `json:"broadcast"`
	InterfaceType string `json:"interface_type"` // "ethernet", "wifi", "localhost", "global", "other"
}

// interfaceType guesses the medium from the interface name.
func interfaceType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "lo"):
		return "localhost"
	case strings.HasPrefix(lower, "en"), strings.HasPrefix(lower, "eth"):
		return "ethernet"
	case strings.HasPrefix(lower, "wl"), strings.Contains(lower, "wifi"), strings.Contains(lower, "wlan"):
		return "wifi"
	default:
		return "other"
	}
}

// broadcastAddr computes the IPv4 directed broadcast for a network.
func broadcastAddr(ipNet *net.IPNet) net.IP {
	ip := ipNet.IP.To4()
	if ip == nil {
		return nil
	}
	mask := ipNet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	broadcast := make(net.IP, net.IPv4len)
	for i := 0; i < net.IPv4len; i++ {
		broadcast[i] = ip[i] | ^mask[i]
	}
	return broadcast
}

// ListInterfaceOptions returns every up IPv4 interface with its directed
// broadcast address, plus the global broadcast as a final fallback.
func ListInterfaceOptions() []InterfaceOption {
	var options []InterfaceOption

	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagUp == 0 {
				continue
			}
			addrs, err := iface.Addrs()
			if err != nil {
				continue
			}
			for _, addr := range addrs {
				ipNet, ok := addr.(*net.IPNet)
				if !ok || ipNet.IP.To4() == nil {
					continue
				}
				broadcast := broadcastAddr(ipNet)
				if broadcast == nil {
					continue
				}
				options = append(options, InterfaceOption{
					Name:          iface.Name,
					Address:       ipNet.IP.String(),
					Broadcast:     broadcast.String(),
					InterfaceType: interfaceType(iface.Name),
				})
			}
		}
	}

	options = append(options, InterfaceOption{
		Name:          "global",
		Address:       "0.0.0.0",
		Broadcast:     "255.255.255.255",
		InterfaceType: "global",
	})
	return options
}
