package pwospfd

import (
	"net"
	"testing"
)

func TestNeighborTableRefreshAddsThenRefreshes(t *testing.T) {
	nt := NewNeighborTable(30)

	res := nt.Refresh(0x02020202, net.ParseIP("10.0.0.2"))
	if res != NeighborAdded {
		t.Fatalf("first refresh = %v, want NeighborAdded", res)
	}
	if nt.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", nt.Len())
	}

	res = nt.Refresh(0x02020202, net.ParseIP("10.0.0.2"))
	if res != NeighborRefreshed {
		t.Fatalf("second refresh = %v, want NeighborRefreshed", res)
	}
	if nt.Len() != 1 {
		t.Fatalf("Len() after refresh = %d, want 1 (unique router_id)", nt.Len())
	}
}

func TestNeighborTableTickExpires(t *testing.T) {
	nt := NewNeighborTable(3)
	nt.Refresh(0x02020202, net.ParseIP("10.0.0.2"))

	for i := 0; i < 2; i++ {
		expired := nt.Tick()
		if len(expired) != 0 {
			t.Fatalf("tick %d expired %v, want none yet", i, expired)
		}
	}

	expired := nt.Tick()
	if len(expired) != 1 || expired[0] != 0x02020202 {
		t.Fatalf("final tick expired = %v, want [0x02020202]", expired)
	}
	if nt.Len() != 0 {
		t.Fatalf("Len() after expiry = %d, want 0", nt.Len())
	}
}

func TestNeighborTableRefreshResetsTTL(t *testing.T) {
	nt := NewNeighborTable(3)
	nt.Refresh(0x02020202, net.ParseIP("10.0.0.2"))

	nt.Tick()
	nt.Tick()
	nt.Refresh(0x02020202, net.ParseIP("10.0.0.2"))

	// TTL was reset, so two more ticks should not expire it.
	nt.Tick()
	nt.Tick()
	if nt.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (TTL was refreshed)", nt.Len())
	}
}

func TestNeighborTableLookupAndIter(t *testing.T) {
	nt := NewNeighborTable(30)
	nt.Refresh(1, net.ParseIP("10.0.0.1"))
	nt.Refresh(2, net.ParseIP("10.0.0.2"))

	if _, ok := nt.Lookup(1); !ok {
		t.Fatalf("Lookup(1) not found")
	}
	if _, ok := nt.Lookup(99); ok {
		t.Fatalf("Lookup(99) found, want not found")
	}

	all := nt.Iter()
	if len(all) != 2 {
		t.Fatalf("Iter() returned %d records, want 2", len(all))
	}
}
