// Package bart implements pwospfd.RouteTable on top of a gaissmai/bart
// longest-prefix-match table, for in-process use (tests, the status view,
// or a host that does not want kernel route programming).
package bart

import (
	"net"
	"net/netip"
	"sync"

	"github.com/gaissmai/bart"

	"github.com/ddddddO/pwospfd"
)

// RouteTable is a pwospfd.RouteTable backed by a bart.Table[pwospfd.Route],
// keyed by the route's subnet/mask as a netip.Prefix.
type RouteTable struct {
	mu    sync.RWMutex
	table *bart.Table[pwospfd.Route]
}

// New returns an empty RouteTable.
func New() *RouteTable {
	return &RouteTable{table: new(bart.Table[pwospfd.Route])}
}

// ClearOwned removes every route previously installed with the given
// admin distance, per §4.F's atomic clear-then-add discipline.
func (r *RouteTable) ClearOwned(adminDistance int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var owned []netip.Prefix
	for pfx, route := range r.table.All() {
		if route.AdminDistance == adminDistance {
			owned = append(owned, pfx)
		}
	}
	for _, pfx := range owned {
		r.table.Delete(pfx)
	}
}

// Routes returns every currently installed route, for display purposes
// (e.g. internal/statusview). Not part of pwospfd.RouteTable.
func (r *RouteTable) Routes() []pwospfd.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []pwospfd.Route
	for _, route := range r.table.All() {
		out = append(out, route)
	}
	return out
}

// Add inserts or replaces the route for route.Subnet/route.Mask.
func (r *RouteTable) Add(route pwospfd.Route) {
	pfx, ok := toPrefix(route.Subnet, route.Mask)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table.Insert(pfx, route)
}

// Contains reports whether any installed route's prefix covers subnet, via
// longest-prefix-match (§4.F's "unless a lower-distance route already
// exists" check).
func (r *RouteTable) Contains(subnet net.IP) bool {
	addr, ok := toAddr(subnet)
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.Contains(addr)
}

func toAddr(ip net.IP) (netip.Addr, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return netip.Addr{}, false
	}
	return netip.AddrFrom4([4]byte{v4[0], v4[1], v4[2], v4[3]}), true
}

func toPrefix(subnet, mask net.IP) (netip.Prefix, bool) {
	addr, ok := toAddr(subnet)
	if !ok {
		return netip.Prefix{}, false
	}
	maskAddr, ok := toAddr(mask)
	if !ok {
		return netip.Prefix{}, false
	}
	ones, invalid := prefixLength(maskAddr)
	if invalid {
		return netip.Prefix{}, false
	}
	pfx, err := addr.Prefix(ones)
	if err != nil {
		return netip.Prefix{}, false
	}
	return pfx, true
}

// prefixLength counts the leading one-bits of a dotted-quad mask.
func prefixLength(mask netip.Addr) (ones int, invalid bool) {
	b := mask.As4()
	seenZero := false
	for _, octet := range b {
		for bit := 7; bit >= 0; bit-- {
			if octet&(1<<bit) != 0 {
				if seenZero {
					return 0, true
				}
				ones++
			} else {
				seenZero = true
			}
		}
	}
	return ones, false
}
