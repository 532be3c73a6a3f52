package pwospfd

import "container/heap"

// SPFResult is one route the SPF engine wants installed, mirroring the
// RouteTable.Add shape but independent of any particular host RouteTable
// implementation (§4.F).
type SPFResult struct {
	Subnet  uint32
	Mask    uint32
	NextHop uint32
	Egress  string
}

// frontierItem is one entry in the Dijkstra priority frontier: the
// best-known path to reach routerID, inherited from the root (self) via the
// first interface/next_hop on that path.
type frontierItem struct {
	routerID uint32
	cost     int
	nextHop  uint32
	egress   string
}

// frontierHeap implements container/heap.Interface, replacing the bubble
// sort the original's ad-hoc frontier used (§9 redesign flag).
type frontierHeap []frontierItem

func (h frontierHeap) Len() int            { return len(h) }
func (h frontierHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h frontierHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *frontierHeap) Push(x interface{}) { *h = append(*h, x.(frontierItem)) }
func (h *frontierHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// RunSPF computes shortest paths from localRouterID over the topology
// snapshot and returns the routes to install, per §4.F.
func RunSPF(localRouterID uint32, snapshot []TopologyLink, ifaces []Interface, bindings InterfaceProvider) []SPFResult {
	byRouter := make(map[uint32][]TopologyLink)
	for _, link := range snapshot {
		byRouter[link.RouterID] = append(byRouter[link.RouterID], link)
	}

	localSubnets := make(map[uint32]uint32) // subnet -> mask, for suppression
	for _, iface := range ifaces {
		if !iface.Enabled {
			continue
		}
		mask := ipv4ToUint32(iface.Mask)
		localSubnets[ipv4ToUint32(iface.IP)&mask] = mask
	}

	frontier := &frontierHeap{}
	heap.Init(frontier)
	for _, iface := range ifaces {
		if !iface.Enabled {
			continue
		}
		b := bindings.Binding(iface.Name)
		if b == nil || !b.HasNeighbor() {
			continue
		}
		heap.Push(frontier, frontierItem{
			routerID: b.NeighborRouterID,
			cost:     1,
			nextHop:  ipv4ToUint32(b.NeighborIP),
			egress:   iface.Name,
		})
	}

	settled := make(map[uint32]frontierItem)
	for frontier.Len() > 0 {
		item := heap.Pop(frontier).(frontierItem)
		if _, ok := settled[item.routerID]; ok {
			continue // already settled by a lower-or-equal-cost path: first-settled wins
		}
		if item.routerID == localRouterID {
			continue
		}
		settled[item.routerID] = item

		for _, link := range byRouter[item.routerID] {
			if link.NeighborRouterID == 0 || link.NeighborRouterID == localRouterID {
				continue
			}
			if _, ok := settled[link.NeighborRouterID]; ok {
				continue
			}
			heap.Push(frontier, frontierItem{
				routerID: link.NeighborRouterID,
				cost:     item.cost + 1,
				nextHop:  item.nextHop,
				egress:   item.egress,
			})
		}
	}

	byIndex := make(map[uint32]int) // subnet -> index into results, for cost-based replace
	var results []SPFResult
	var costs []int
	for routerID, settledNode := range settled {
		for _, link := range byRouter[routerID] {
			if mask, ok := localSubnets[link.Subnet]; ok && mask == link.Mask {
				continue // suppressed: one of our own interfaces is on this subnet
			}
			candidate := SPFResult{
				Subnet:  link.Subnet,
				Mask:    link.Mask,
				NextHop: settledNode.nextHop,
				Egress:  settledNode.egress,
			}
			// A transit subnet's record appears under both endpoints; the
			// lower-cost (nearer) settled router wins, not first-seen.
			if idx, ok := byIndex[link.Subnet]; ok {
				if settledNode.cost < costs[idx] {
					results[idx] = candidate
					costs[idx] = settledNode.cost
				}
				continue
			}
			byIndex[link.Subnet] = len(results)
			results = append(results, candidate)
			costs = append(costs, settledNode.cost)
		}
	}

	return results
}

// InstallRoutes clears every previously core-owned route and installs the
// freshly computed set, per §4.F's atomic clear-then-add discipline. Callers
// must hold spfLock (and, transitively, have already released subsysLock
// after taking the topology snapshot).
func InstallRoutes(table RouteTable, results []SPFResult) {
	table.ClearOwned(AdminDistance)
	for _, r := range results {
		table.Add(Route{
			Subnet:        uint32ToIPv4(r.Subnet),
			Mask:          uint32ToIPv4(r.Mask),
			NextHop:       uint32ToIPv4(r.NextHop),
			Iface:         r.Egress,
			AdminDistance: AdminDistance,
		})
	}
}
