// Package hostnet is the reference host-facing transport: it owns raw
// sockets/pcap handles per interface and feeds every frame whose IP
// protocol is 89 into a pwospfd.Subsystem, implementing the
// PacketSender/InterfaceProvider boundary described in spec.md §6.
package hostnet

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ddddddO/pwospfd"
)

const ipProtoOSPF = 89

// htons converts a short from host to network byte order.
func htons(i uint16) uint16 {
	return (i<<8)&0xff00 | i>>8
}

// isOSPFFrame reports whether raw is an IPv4 frame carrying protocol 89,
// the only traffic class the host forwards to OnPacket (§6).
func isOSPFFrame(raw []byte) bool {
	if len(raw) < 14+20 {
		return false
	}
	if binary.BigEndian.Uint16(raw[12:14]) != 0x0800 {
		return false
	}
	return raw[14+9] == ipProtoOSPF
}

// Transport owns one NetworkInterface per configured PWOSPF-enabled
// interface and presents them as a pwospfd.PacketSender/InterfaceProvider.
type Transport struct {
	mu       sync.RWMutex
	ifaces   map[string]*NetworkInterface
	bindings map[string]*pwospfd.Binding
}

// NewTransport opens a raw transport for each enabled interface in cfg.
func NewTransport(cfg []pwospfd.InterfaceConfig) (*Transport, error) {
	t := &Transport{
		ifaces:   make(map[string]*NetworkInterface),
		bindings: make(map[string]*pwospfd.Binding),
	}
	for _, ic := range cfg {
		if !ic.Enabled {
			continue
		}
		nwif, err := newNetworkInterfacePlatform(ic.Name, net.ParseIP(ic.IP), net.ParseIP(ic.Mask))
		if err != nil {
			t.closeAll()
			return nil, fmt.Errorf("hostnet: opening %s: %w", ic.Name, err)
		}
		t.ifaces[ic.Name] = nwif
		t.bindings[ic.Name] = &pwospfd.Binding{}
	}
	return t, nil
}

// SendPacket implements pwospfd.PacketSender.
func (t *Transport) SendPacket(ifaceName string, frame []byte) error {
	t.mu.RLock()
	nwif, ok := t.ifaces[ifaceName]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("hostnet: unknown interface %q", ifaceName)
	}
	return nwif.send(frame)
}

// Interfaces implements pwospfd.InterfaceProvider.
func (t *Transport) Interfaces() []pwospfd.Interface {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]pwospfd.Interface, 0, len(t.ifaces))
	for name, nwif := range t.ifaces {
		out = append(out, pwospfd.Interface{
			Name:    name,
			MAC:     nwif.mac,
			IP:      nwif.ip,
			Mask:    nwif.mask,
			Enabled: true,
		})
	}
	return out
}

// Binding implements pwospfd.InterfaceProvider.
func (t *Transport) Binding(ifaceName string) *pwospfd.Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bindings[ifaceName]
}

// Run starts one receive loop per interface, delivering every OSPF-proto
// frame to onPacket, until ctx is cancelled. onPacket's error is whatever
// the subsystem returns for a dropped frame (§7: parse errors and policy
// rejects are already logged by the subsystem itself); Run only logs it
// here for transport-level visibility, it never surfaces further.
func (t *Transport) Run(ctx context.Context, onPacket func(ifaceName string, raw []byte) error) {
	var wg sync.WaitGroup
	t.mu.RLock()
	for name, nwif := range t.ifaces {
		wg.Add(1)
		go func(name string, nwif *NetworkInterface) {
			defer wg.Done()
			nwif.receiveLoop(ctx, func(raw []byte) {
				if !isOSPFFrame(raw) {
					return
				}
				if err := onPacket(name, raw); err != nil {
					logrus.WithError(err).WithField("iface", name).Debug("hostnet: frame dropped")
				}
			})
		}(name, nwif)
	}
	t.mu.RUnlock()
	wg.Wait()
}

// Close releases every owned socket/handle.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeAll()
}

func (t *Transport) closeAll() {
	for _, nwif := range t.ifaces {
		nwif.close()
	}
}
