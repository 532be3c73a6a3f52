//go:build linux

package main

import (
	"github.com/ddddddO/pwospfd/routetable/netlink"
)

func newKernelRouteTable() routeTable {
	return netlink.New()
}
