package pwospfd

import "net"

// NeighborRefreshResult reports whether a refresh call created a new record
// or extended an existing one's liveness.
type NeighborRefreshResult int

const (
	NeighborRefreshed NeighborRefreshResult = iota
	NeighborAdded
)

// NeighborRecord is one entry in the NeighborTable: a directly adjacent
// router and how long it has left to live without a fresh HELLO.
type NeighborRecord struct {
	RouterID   uint32
	SourceIP   net.IP
	TTLSeconds int
}

// NeighborTable holds, at most, one record per router_id (§4.B invariant).
// It is not safe for concurrent use on its own; the subsystem serializes
// access under subsysLock.
type NeighborTable struct {
	neighborTimeout int
	records         map[uint32]*NeighborRecord
}

// NewNeighborTable creates an empty table whose records are refreshed to
// neighborTimeout seconds on each observed HELLO.
func NewNeighborTable(neighborTimeout int) *NeighborTable {
	return &NeighborTable{
		neighborTimeout: neighborTimeout,
		records:         make(map[uint32]*NeighborRecord),
	}
}

// Refresh inserts a new record for routerID, or resets an existing one's TTL,
// per §4.B.
func (t *NeighborTable) Refresh(routerID uint32, sourceIP net.IP) NeighborRefreshResult {
	if rec, ok := t.records[routerID]; ok {
		rec.SourceIP = sourceIP
		rec.TTLSeconds = t.neighborTimeout
		return NeighborRefreshed
	}
	t.records[routerID] = &NeighborRecord{
		RouterID:   routerID,
		SourceIP:   sourceIP,
		TTLSeconds: t.neighborTimeout,
	}
	return NeighborAdded
}

// Tick decrements every record's TTL by one second and removes those that
// reach zero, returning the routerIDs removed this tick.
func (t *NeighborTable) Tick() []uint32 {
	var expired []uint32
	for routerID, rec := range t.records {
		rec.TTLSeconds--
		if rec.TTLSeconds <= 0 {
			expired = append(expired, routerID)
			delete(t.records, routerID)
		}
	}
	return expired
}

// Lookup returns the record for routerID, if present.
func (t *NeighborTable) Lookup(routerID uint32) (*NeighborRecord, bool) {
	rec, ok := t.records[routerID]
	return rec, ok
}

// Iter returns a snapshot slice of every current record.
func (t *NeighborTable) Iter() []NeighborRecord {
	out := make([]NeighborRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	return out
}

// Len reports the number of live neighbor records.
func (t *NeighborTable) Len() int {
	return len(t.records)
}
