package utils

import (
	"fmt"
	"net"
)

// IPAllowList holds parsed CIDR blocks for the admin endpoints.
// An empty list allows every address.
type IPAllowList struct {
	blocks []*net.IPNet
}

func NewIPAllowList(cidrs []string) (*IPAllowList, error) {
	list := &IPAllowList{}
	for _, cidr := range cidrs {
		if cidr == "" {
			continue
		}
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid cidr %q: %w", cidr, err)
		}
		list.blocks = append(list.blocks, block)
	}
	return list, nil
}

// Allows reports whether ip falls inside one of the configured blocks.
func (l *IPAllowList) Allows(ip string) bool {
	if l == nil || len(l.blocks) == 0 {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, block := range l.blocks {
		if block.Contains(parsed) {
			return true
		}
	}
	return false
}
