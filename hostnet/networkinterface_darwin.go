//go:build darwin

package hostnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// NetworkInterface is a pcap live capture handle bound to one interface.
type NetworkInterface struct {
	name   string
	mac    net.HardwareAddr
	ip     net.IP
	mask   net.IP
	handle *pcap.Handle
}

func newNetworkInterfacePlatform(name string, ip, mask net.IP) (*NetworkInterface, error) {
	intf, err := findInterface(name)
	if err != nil {
		return nil, err
	}

	handle, err := pcap.OpenLive(intf.Name, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("hostnet: opening pcap handle on %s: %w", intf.Name, err)
	}

	return &NetworkInterface{
		name:   name,
		mac:    intf.HardwareAddr,
		ip:     ip,
		mask:   mask,
		handle: handle,
	}, nil
}

func findInterface(name string) (*net.Interface, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, intf := range ifs {
		if intf.Name == name || strings.Contains(intf.Name, name) {
			return &intf, nil
		}
	}
	return nil, errors.New("hostnet: interface not found: " + name)
}

func (n *NetworkInterface) send(frame []byte) error {
	return n.handle.WritePacketData(frame)
}

func (n *NetworkInterface) receiveLoop(ctx context.Context, cb func([]byte)) {
	packetSource := gopacket.NewPacketSource(n.handle, layers.LayerTypeEthernet)
	packets := packetSource.Packets()
	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-packets:
			if !ok || packet == nil {
				return
			}
			data := packet.Data()
			if len(data) < 14 {
				continue
			}
			frame := make([]byte, len(data))
			copy(frame, data)
			cb(frame)
		}
	}
}

func (n *NetworkInterface) close() {
	if n.handle != nil {
		n.handle.Close()
	}
}
