//go:build linux

// File: transport/udp/syscalls_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw non-blocking datagram socket syscalls. connect() on a SOCK_DGRAM
// socket only fixes the default peer and completes synchronously (no
// SO_ERROR wait, unlike TCP's connect), grounded on the original evpl
// core's datagram socket path (src/core/socket/udp.c).

package udp

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/evplgo/api"
)

func connectSocket(host string, port int) (int, error) {
	sa, isV6, err := resolveSockaddr(host, port)
	if err != nil {
		return 0, err
	}
	domain := unix.AF_INET
	if isV6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return 0, err
	}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return 0, err
	}
	return fd, nil
}

func bindSocket(host string, port int) (int, error) {
	sa, isV6, err := resolveSockaddr(host, port)
	if err != nil {
		return 0, err
	}
	domain := unix.AF_INET
	if isV6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return 0, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return 0, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return 0, err
	}
	return fd, nil
}

// readOne performs one recv() on a connected datagram socket, returning
// the bytes read. EAGAIN reports 0, nil, matching tcp's readv contract.
func readOne(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// writeOne performs one send() on a connected datagram socket, writing
// buf as exactly one datagram.
func writeOne(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// recvfromOne reads exactly one inbound datagram and its source address
// off an unconnected (listening) socket.
func recvfromOne(fd int, buf []byte) (int, api.Address, error) {
	n, sa, err := unix.Recvfrom(fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, api.Address{}, nil
		}
		return 0, api.Address{}, err
	}
	host, port := addressFromSockaddr(sa)
	return n, api.Address{Host: host, Port: port}, nil
}

// sendtoOne writes buf as one datagram to addr on an unconnected socket.
func sendtoOne(fd int, buf []byte, addr api.Address) (int, error) {
	sa, _, err := resolveSockaddr(addr.Host, addr.Port)
	if err != nil {
		return 0, err
	}
	if err := unix.Sendto(fd, buf, 0, sa); err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	return len(buf), nil
}

func closeFD(fd int) error { return unix.Close(fd) }

func localAddress(fd int) (api.Address, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return api.Address{}, err
	}
	host, port := addressFromSockaddr(sa)
	return api.Address{Host: host, Port: port}, nil
}

func resolveSockaddr(host string, port int) (unix.Sockaddr, bool, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return nil, false, err
		}
		ip = ips[0]
	}
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, false, nil
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, true, nil
}

func addressFromSockaddr(sa unix.Sockaddr) (string, int) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(v.Addr[:]).String(), v.Port
	case *unix.SockaddrInet6:
		return net.IP(v.Addr[:]).String(), v.Port
	}
	return "", 0
}
