// Package statusview is a live tview dashboard over a running
// pwospfd.Subsystem: neighbor table, topology DB, routing table, and
// interface state, refreshed once a second.
package statusview

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/ddddddO/pwospfd"
)

// RouteLister is implemented by a routetable that can enumerate its
// installed routes for display; pwospfd.RouteTable itself has no such
// method since the core never needs to read routes back.
type RouteLister interface {
	Routes() []pwospfd.Route
}

// Dashboard is a live view of one Subsystem's state.
type Dashboard struct {
	app  *tview.Application
	flex *tview.Flex

	headerBox      *tview.TextView
	neighborsBox   *tview.TextView
	topologyBox    *tview.TextView
	routesBox      *tview.TextView
	interfacesBox  *tview.TextView

	sub    *pwospfd.Subsystem
	routes RouteLister

	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

// NewDashboard creates a dashboard over sub, polling it once a second.
// routes may be nil, in which case the routes pane stays empty.
func NewDashboard(app *tview.Application, sub *pwospfd.Subsystem, routes RouteLister) *Dashboard {
	d := &Dashboard{
		app:    app,
		sub:    sub,
		routes: routes,
		done:   make(chan struct{}),
	}
	d.initUI()

	d.ticker = time.NewTicker(1 * time.Second)
	go d.updateLoop()

	return d
}

func (d *Dashboard) initUI() {
	d.headerBox = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetTitle("pwospfd").
		SetBorder(true)

	d.neighborsBox = tview.NewTextView().
		SetDynamicColors(true).
		SetTitle("Neighbors").
		SetBorder(true)

	d.topologyBox = tview.NewTextView().
		SetDynamicColors(true).
		SetTitle("Topology DB").
		SetBorder(true)

	d.routesBox = tview.NewTextView().
		SetDynamicColors(true).
		SetTitle("Routes").
		SetBorder(true)

	d.interfacesBox = tview.NewTextView().
		SetDynamicColors(true).
		SetTitle("Interfaces").
		SetBorder(true)

	topRow := tview.NewFlex().
		AddItem(d.neighborsBox, 0, 1, false).
		AddItem(d.interfacesBox, 0, 1, false)

	bottomRow := tview.NewFlex().
		AddItem(d.topologyBox, 0, 2, false).
		AddItem(d.routesBox, 0, 2, false)

	d.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(d.headerBox, 3, 0, false).
		AddItem(topRow, 0, 1, false).
		AddItem(bottomRow, 0, 2, false)
}

func (d *Dashboard) updateLoop() {
	for {
		select {
		case <-d.ticker.C:
			d.updateUI()
		case <-d.done:
			return
		}
	}
}

func (d *Dashboard) updateUI() {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.sub.Snapshot()
	var routes []pwospfd.Route
	if d.routes != nil {
		routes = d.routes.Routes()
	}

	d.app.QueueUpdateDraw(func() {
		d.headerBox.Clear()
		fmt.Fprintf(d.headerBox, "[yellow]router_id:[white] %s  [yellow]area:[white] %d",
			formatRouterID(snap.RouterID), snap.AreaID)

		d.neighborsBox.Clear()
		fmt.Fprint(d.neighborsBox, formatNeighbors(snap.Neighbors))

		d.topologyBox.Clear()
		fmt.Fprint(d.topologyBox, formatTopology(snap.Topology))

		d.routesBox.Clear()
		fmt.Fprint(d.routesBox, formatRoutes(routes))

		d.interfacesBox.Clear()
		fmt.Fprint(d.interfacesBox, formatInterfaces(snap.Interfaces))
	})
}

// GetView returns the dashboard's root primitive.
func (d *Dashboard) GetView() tview.Primitive {
	return d.flex
}

// Stop stops the refresh ticker.
func (d *Dashboard) Stop() {
	d.ticker.Stop()
	close(d.done)
}

// HandleKey passes through key events; reserved for future pane switching.
func (d *Dashboard) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	return event
}
