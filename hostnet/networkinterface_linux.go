//go:build linux

package hostnet

import (
	"context"
	"errors"
	"net"
	"strings"

	"golang.org/x/sys/unix"
)

// NetworkInterface is a raw AF_PACKET socket bound to one interface.
type NetworkInterface struct {
	name string
	mac  net.HardwareAddr
	ip   net.IP
	mask net.IP

	sock int
	addr unix.SockaddrLinklayer
}

func newNetworkInterfacePlatform(name string, ip, mask net.IP) (*NetworkInterface, error) {
	intf, err := findInterface(name)
	if err != nil {
		return nil, err
	}

	sock, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, err
	}
	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  intf.Index,
	}
	if err := unix.Bind(sock, &addr); err != nil {
		unix.Close(sock)
		return nil, err
	}

	return &NetworkInterface{
		name: name,
		mac:  intf.HardwareAddr,
		ip:   ip,
		mask: mask,
		sock: sock,
		addr: addr,
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
	return unix.Sendto(n.sock, frame, 0, &n.addr)
}

func (n *NetworkInterface) receiveLoop(ctx context.Context, cb func([]byte)) {
	buf := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			nRead, _, err := unix.Recvfrom(n.sock, buf, 0)
			if err != nil {
				continue
			}
			if nRead <= 14 {
				continue
			}
			frame := make([]byte, nRead)
			copy(frame, buf[:nRead])
			cb(frame)
		}
	}
}

func (n *NetworkInterface) close() {
	if n.sock != 0 {
		unix.Close(n.sock)
	}
}
