package pwospfd

// IngestResult reports the outcome of TopologyDB.Ingest, per §4.D.
type IngestResult int

const (
	IngestNew IngestResult = iota
	IngestUpdated
	IngestStale
	IngestDuplicate
)

func (r IngestResult) String() string {
	switch r {
	case IngestNew:
		return "New"
	case IngestUpdated:
		return "Updated"
	case IngestStale:
		return "Stale"
	case IngestDuplicate:
		return "Duplicate"
	default:
		return "Unknown"
	}
}

// topologyKey uniquely identifies a link record: (router_id, subnet).
type topologyKey struct {
	RouterID uint32
	Subnet   uint32
}

// TopologyLink is one directed link record: a subnet router_id advertises,
// and the neighbor (if any) adjacent across it. NeighborRouterID == 0
// denotes a stub link (§3, §4.D, §13).
//
// §3 names a next_hop_ip field on this record, but it has no single fixed
// value: the next hop for a route through this link is the root's own
// neighbor IP on the first hop of the SPF path to router_id, which differs
// per SPF run and per root, not a property of the link record itself (see
// spf.go, which tracks it on the frontier instead). Carrying it here would
// either be wrong for multi-hop paths or duplicate SPF's own bookkeeping,
// so it is omitted; see DESIGN.md.
type TopologyLink struct {
	RouterID         uint32
	Subnet           uint32
	Mask             uint32
	NeighborRouterID uint32
	Seq              uint16
	AgeSeconds       int
}

// TopologyDB is the area-wide link-state database, keyed by (router_id,
// subnet). Not safe for concurrent use on its own; the subsystem serializes
// access under subsysLock, and Snapshot must be called under that lock too.
type TopologyDB struct {
	maxAge  int
	records map[topologyKey]*TopologyLink
}

// NewTopologyDB creates an empty database that purges records unrefreshed
// for maxAge seconds.
func NewTopologyDB(maxAge int) *TopologyDB {
	return &TopologyDB{
		maxAge:  maxAge,
		records: make(map[topologyKey]*TopologyLink),
	}
}

// seqNewer implements the OSPF modulo-2^16 "newer than" rule: a is newer
// than b iff a != b and (a - b) mod 2^16 < 2^15.
func seqNewer(a, b uint16) bool {
	if a == b {
		return false
	}
	return uint16(a-b) < 1<<15
}

// Ingest applies one advertisement from fromRouterID with sequence seq,
// returning how the record was affected.
func (db *TopologyDB) Ingest(advert Advertisement, fromRouterID uint32, seq uint16) IngestResult {
	key := topologyKey{RouterID: fromRouterID, Subnet: advert.Subnet}
	existing, ok := db.records[key]
	if !ok {
		db.records[key] = &TopologyLink{
			RouterID:         fromRouterID,
			Subnet:           advert.Subnet,
			Mask:             advert.Mask,
			NeighborRouterID: advert.NeighborRouterID,
			Seq:              seq,
			AgeSeconds:       0,
		}
		return IngestNew
	}

	if seq == existing.Seq {
		return IngestDuplicate
	}
	if !seqNewer(seq, existing.Seq) {
		return IngestStale
	}

	existing.Mask = advert.Mask
	existing.NeighborRouterID = advert.NeighborRouterID
	existing.Seq = seq
	existing.AgeSeconds = 0
	return IngestUpdated
}

// AgeTick increments every record's age by one second and purges those that
// reach maxAge, per §4.D.
func (db *TopologyDB) AgeTick() {
	for key, rec := range db.records {
		rec.AgeSeconds++
		if rec.AgeSeconds >= db.maxAge {
			delete(db.records, key)
		}
	}
}

// PurgeRouter removes every record originated by routerID, used to rebuild
// self-records wholesale on an interface binding change (§4.D invariant).
func (db *TopologyDB) PurgeRouter(routerID uint32) {
	for key := range db.records {
		if key.RouterID == routerID {
			delete(db.records, key)
		}
	}
}

// Snapshot returns an immutable copy of every record, for SPF (§4.D, §4.F).
func (db *TopologyDB) Snapshot() []TopologyLink {
	out := make([]TopologyLink, 0, len(db.records))
	for _, rec := range db.records {
		out = append(out, *rec)
	}
	return out
}

// Len reports the number of link records currently held.
func (db *TopologyDB) Len() int {
	return len(db.records)
}
