// Command pwospfd is the reference host binary for the PWOSPF control
// plane implemented by package pwospfd: it wires a real transport, a real
// routing table, and (optionally) a live status view into the three host
// services the core consumes (send_packet, interface inventory, routing
// table), per spec.md §6 and SPEC_FULL.md §14.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"

	"github.com/ddddddO/pwospfd"
	"github.com/ddddddO/pwospfd/hostnet"
	"github.com/ddddddO/pwospfd/internal/statusview"
	"github.com/ddddddO/pwospfd/routetable/bart"
)

func main() {
	var (
		routerIDFlag = flag.String("router-id", "", "router ID, dotted-quad (e.g. 1.1.1.1); overrides config file")
		ui           = flag.Bool("ui", false, "show the live status dashboard")
		kernelRoutes = flag.Bool("kernel-routes", false, "program SPF routes into the kernel FIB instead of the in-process table (linux only)")
	)
	flag.Parse()

	cfg, err := pwospfd.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("pwospfd: loading config")
	}
	if *routerIDFlag != "" {
		id, ok := parseRouterID(*routerIDFlag)
		if !ok {
			logrus.WithField("router-id", *routerIDFlag).Fatal("pwospfd: -router-id must be a dotted-quad IPv4 address")
		}
		cfg.RouterID = id
	}
	if cfg.RouterID == 0 {
		logrus.Fatal("pwospfd: RouterID is unset; pass -router-id or set it in the config file")
	}

	transport, err := hostnet.NewTransport(cfg.Interfaces)
	if err != nil {
		logrus.WithError(err).Fatal("pwospfd: opening transports")
	}
	defer transport.Close()

	var routes routeTable
	if *kernelRoutes {
		routes = newKernelRouteTable()
	} else {
		routes = bart.New()
	}

	sub := pwospfd.NewSubsystem(cfg, transport, transport, routes)
	sub.Start()
	defer sub.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go transport.Run(ctx, sub.OnPacket)

	var app *tview.Application
	var dash *statusview.Dashboard
	if *ui {
		app = tview.NewApplication()
		dash = statusview.NewDashboard(app, sub, routes)
		app.SetRoot(dash.GetView(), true).SetInputCapture(dash.HandleKey)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if app != nil {
			app.Stop()
		}
		cancel()
	}()

	if *ui {
		if err := app.Run(); err != nil {
			logrus.WithError(err).Error("pwospfd: status view exited with error")
		}
		dash.Stop()
		cancel()
		return
	}

	<-ctx.Done()
}

// routeTable is satisfied by both routetable implementations; it is the
// union of pwospfd.RouteTable (consumed by the core) and statusview's
// RouteLister (consumed by the dashboard).
type routeTable interface {
	pwospfd.RouteTable
	statusview.RouteLister
}

func parseRouterID(s string) (uint32, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, false
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}
