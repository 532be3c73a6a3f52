package pwospfd

import (
	"fmt"
	"sync"
)

// Subsystem is the single owned value replacing the original's globals
// (nbr_head, topology_header, router_id, if_unable, several thread handles)
// per §9's explicit redesign instruction. The host holds exactly one
// reference to it, calling OnPacket for every inbound frame with IP proto
// 89 and Start/Stop to drive its lifetime.
type Subsystem struct {
	routerID  uint32
	areaID    uint32
	lsuRefresh int

	hostIfaces InterfaceProvider
	sender     PacketSender
	routes     RouteTable

	// subsysLock protects the neighbor table, topology DB, interface
	// bindings, and the LSU sequence counter (via lsu). spfLock serializes
	// SPF runs and route installation. Lock order, unconditional:
	// subsysLock before spfLock when both are needed (§5). Neither lock is
	// ever held across a send_packet call.
	subsysLock sync.Mutex
	spfLock    sync.Mutex

	neighbors *NeighborTable
	topology  *TopologyDB
	hello     *HelloEngine
	lsu       *LSUEngine

	sched   *scheduler
	spfWake chan struct{}
	spfStop chan struct{}
	spfDone chan struct{}
}

// NewSubsystem builds a Subsystem from cfg, wired to the host's interface
// inventory, packet sender, and routing table (§6 host-facing API).
func NewSubsystem(cfg *Config, ifaces InterfaceProvider, sender PacketSender, routes RouteTable) *Subsystem {
	return &Subsystem{
		routerID:   cfg.RouterID,
		areaID:     cfg.AreaID,
		lsuRefresh: cfg.LSURefresh,
		hostIfaces: ifaces,
		sender:     sender,
		routes:     routes,
		neighbors:  NewNeighborTable(cfg.NeighborTimeout),
		topology:   NewTopologyDB(cfg.LSUMaxAge),
		hello:      NewHelloEngine(cfg.RouterID, cfg.AreaID, cfg.HelloInterval),
		lsu:        NewLSUEngine(cfg.RouterID, cfg.AreaID, cfg.LSUMaxHops),
		spfWake:    make(chan struct{}, 1),
	}
}

// Start spins up the SPF worker and the periodic scheduler. Minimum logical
// threads per §5: the packet-ingress dispatcher is the host calling
// OnPacket; Start supplies the other two (ticker, SPF worker).
func (s *Subsystem) Start() {
	s.spfStop = make(chan struct{})
	s.spfDone = make(chan struct{})
	go s.spfWorker()

	s.sched = newScheduler(s.lsuRefresh, s.onTick, s.onLSURefreshTimer)
	s.sched.start()
}

// Stop sets a stop flag, wakes each owned thread, and joins them before
// returning, per §5's cancellation discipline. In-flight send_packet calls
// are allowed to complete; Stop does not cancel them.
func (s *Subsystem) Stop() {
	s.sched.stopAndWait()
	close(s.spfStop)
	<-s.spfDone
}

// OnPacket is the host's inbound delivery entry point: it is called for
// every frame whose IP proto is 89 (§6).
func (s *Subsystem) OnPacket(ifaceName string, raw []byte) error {
	frame, err := decodeEthernetIPOSPF(raw)
	if err != nil {
		logger.Debugf("pwospfd: dropping frame on %s: %v", ifaceName, err)
		return err
	}
	if frame.OSPF.AreaID != s.areaID {
		logger.Debugf("pwospfd: dropping frame on %s: area %d != local %d", ifaceName, frame.OSPF.AreaID, s.areaID)
		return nil
	}

	switch frame.OSPF.Type {
	case OSPFTypeHello:
		return s.onHello(ifaceName, raw)
	case OSPFTypeLSU:
		return s.onLSU(ifaceName, raw)
	default:
		logger.Debugf("pwospfd: dropping frame on %s: unknown OSPF type %d", ifaceName, frame.OSPF.Type)
		return errUnknownType
	}
}

func (s *Subsystem) onHello(ifaceName string, raw []byte) error {
	frame, body, err := DecodeHello(raw)
	if err != nil {
		logger.Debugf("pwospfd: dropping hello on %s: %v", ifaceName, err)
		return err
	}

	s.subsysLock.Lock()
	iface, ok := findIface(ifaceName, s.hostIfaces.Interfaces())
	if !ok {
		s.subsysLock.Unlock()
		return fmt.Errorf("pwospfd: unknown interface %q", ifaceName)
	}
	binding := s.hostIfaces.Binding(ifaceName)
	if binding == nil {
		s.subsysLock.Unlock()
		return fmt.Errorf("pwospfd: no binding for interface %q", ifaceName)
	}
	accepted, changed := s.hello.Receive(iface, binding, s.neighbors, frame, body)
	s.subsysLock.Unlock()

	if accepted && bool(changed) {
		s.originateLSU()
		s.enqueueSPF()
	}
	return nil
}

func (s *Subsystem) onLSU(ifaceName string, raw []byte) error {
	frame, body, err := DecodeLSU(raw)
	if err != nil {
		logger.Debugf("pwospfd: dropping lsu on %s: %v", ifaceName, err)
		return err
	}

	s.subsysLock.Lock()
	ifaces := s.hostIfaces.Interfaces()
	spfNeeded, pending := s.lsu.Ingest(ifaceName, ifaces, s.hostIfaces, s.topology, raw, frame, body)
	s.subsysLock.Unlock()

	s.sendAll(pending)

	if spfNeeded {
		s.enqueueSPF()
	}
	return nil
}

// onTick runs once per second: neighbor aging, topology aging, and HELLO
// countdowns, all under one subsysLock critical section (§4.G). A neighbor
// expiry clears the interface binding that pointed to it and triggers an
// immediate LSU re-origination reflecting the lost adjacency (§8 scenario 5).
func (s *Subsystem) onTick() {
	s.subsysLock.Lock()
	expired := s.neighbors.Tick()
	s.topology.AgeTick()
	ifaces := s.hostIfaces.Interfaces()
	due := s.hello.Tick(ifaces, s.hostIfaces)

	adjacencyLost := false
	for _, expiredID := range expired {
		for _, iface := range ifaces {
			b := s.hostIfaces.Binding(iface.Name)
			if b != nil && b.NeighborRouterID == expiredID {
				b.NeighborRouterID = 0
				b.NeighborIP = nil
				b.NeighborMAC = nil
				adjacencyLost = true
			}
		}
	}
	s.subsysLock.Unlock()

	if adjacencyLost {
		s.originateLSU()
		s.enqueueSPF()
	}
	for _, ifaceName := range due {
		s.emitHello(ifaceName)
	}
}

func (s *Subsystem) onLSURefreshTimer() {
	s.originateLSU()
	s.enqueueSPF()
}

func (s *Subsystem) emitHello(ifaceName string) {
	s.subsysLock.Lock()
	iface, ok := findIface(ifaceName, s.hostIfaces.Interfaces())
	s.subsysLock.Unlock()
	if !ok {
		return
	}
	frame := s.hello.Build(iface)
	if err := s.sender.SendPacket(ifaceName, frame); err != nil {
		logger.Warnf("pwospfd: send_packet(%s) failed during hello emission: %v", ifaceName, err)
	}
}

// originateLSU rebuilds self-records and floods under subsysLock, then
// performs the actual sends after releasing it (§5: never hold subsysLock
// across send_packet).
func (s *Subsystem) originateLSU() {
	s.subsysLock.Lock()
	ifaces := s.hostIfaces.Interfaces()
	pending := s.lsu.Originate(ifaces, s.hostIfaces, s.topology)
	s.subsysLock.Unlock()

	s.sendAll(pending)
}

func (s *Subsystem) sendAll(pending []PendingSend) {
	for _, p := range pending {
		if err := s.sender.SendPacket(p.Iface, p.Frame); err != nil {
			logger.Warnf("pwospfd: send_packet(%s) failed: %v", p.Iface, err)
		}
	}
}

// enqueueSPF signals the SPF worker; multiple enqueues before it wakes
// collapse to a single pending run (§4.G).
func (s *Subsystem) enqueueSPF() {
	select {
	case s.spfWake <- struct{}{}:
	default:
	}
}

func (s *Subsystem) spfWorker() {
	defer close(s.spfDone)
	for {
		select {
		case <-s.spfStop:
			return
		case <-s.spfWake:
			s.runSPF()
		}
	}
}

// bindingSnapshot is an immutable copy of the interface inventory and
// bindings taken under subsysLock, so SPF can run against a consistent view
// after the lock is released (§4.F execution discipline).
type bindingSnapshot struct {
	ifaces   []Interface
	bindings map[string]Binding
}

func (b *bindingSnapshot) Interfaces() []Interface { return b.ifaces }

func (b *bindingSnapshot) Binding(name string) *Binding {
	bd, ok := b.bindings[name]
	if !ok {
		return nil
	}
	return &bd
}

func (s *Subsystem) runSPF() {
	s.subsysLock.Lock()
	snapshot := s.topology.Snapshot()
	ifaces := s.hostIfaces.Interfaces()
	bindings := make(map[string]Binding, len(ifaces))
	for _, iface := range ifaces {
		if b := s.hostIfaces.Binding(iface.Name); b != nil {
			bindings[iface.Name] = *b
		}
	}
	s.subsysLock.Unlock()

	provider := &bindingSnapshot{ifaces: ifaces, bindings: bindings}

	s.spfLock.Lock()
	results := RunSPF(s.routerID, snapshot, ifaces, provider)
	InstallRoutes(s.routes, results)
	s.spfLock.Unlock()
}

// SubsystemSnapshot is a consistent point-in-time view of the subsystem's
// state, for display (e.g. internal/statusview) or diagnostics. It is not
// used by any core operation; callers must not mutate it.
type SubsystemSnapshot struct {
	RouterID   uint32
	AreaID     uint32
	Neighbors  []NeighborRecord
	Topology   []TopologyLink
	Interfaces []Interface
}

// Snapshot takes a consistent copy of the subsystem's neighbor table,
// topology DB, and interface inventory under subsysLock.
func (s *Subsystem) Snapshot() SubsystemSnapshot {
	s.subsysLock.Lock()
	defer s.subsysLock.Unlock()
	return SubsystemSnapshot{
		RouterID:   s.routerID,
		AreaID:     s.areaID,
		Neighbors:  s.neighbors.Iter(),
		Topology:   s.topology.Snapshot(),
		Interfaces: s.hostIfaces.Interfaces(),
	}
}

func findIface(name string, ifaces []Interface) (Interface, bool) {
	for _, iface := range ifaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}
