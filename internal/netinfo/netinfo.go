// Package netinfo derives the local /24 prefix used to build LAN candidates.
package netinfo

import (
	"fmt"
	"net"
	"strings"

	"github.com/wlynxg/anet"
)

// PrefixFunc reports the first three octets of the local LAN address.
type PrefixFunc func() (string, bool)

// Static returns a PrefixFunc that always yields prefix. A blank prefix
// yields nothing.
func Static(prefix string) PrefixFunc {
	prefix = strings.TrimSpace(prefix)
	return func() (string, bool) {
		return prefix, prefix != ""
	}
}

// SubnetPrefix inspects the host's interface addresses and returns the /24
// prefix of the first private IPv4 address, e.g. "192.168.1".
func SubnetPrefix() (string, bool) {
	addrs, err := anet.InterfaceAddrs()
	if err != nil {
		return "", false
	}
	return prefixFromAddrs(addrs)
}

func prefixFromAddrs(addrs []net.Addr) (string, bool) {
	for _, addr := range addrs {
		ip := ipOf(addr)
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		if !ip.IsPrivate() {
			continue
		}
		if prefix, ok := PrefixOf(ip); ok {
			return prefix, true
		}
	}
	return "", false
}

// PrefixOf drops the last octet of an IPv4 address.
func PrefixOf(ip net.IP) (string, bool) {
	v4 := ip.To4()
	if v4 == nil || v4.IsUnspecified() {
		return "", false
	}
	return fmt.Sprintf("%d.%d.%d", v4[0], v4[1], v4[2]), true
}

func ipOf(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}
