//go:build !linux

package main

import "github.com/sirupsen/logrus"

func newKernelRouteTable() routeTable {
	logrus.Fatal("pwospfd: -kernel-routes is linux-only")
	return nil
}
