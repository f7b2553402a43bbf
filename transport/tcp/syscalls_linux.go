//go:build linux

// File: transport/tcp/syscalls_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw non-blocking socket syscalls, grounded on the original evpl core's
// socket/tcp.c (evpl_socket_tcp_connect, evpl_accept_tcp,
// evpl_socket_tcp_read/write use plain connect/accept/readv/writev).

package tcp

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/evplgo/api"
)

func dial(host string, port int) (int, error) {
	sa, isV6, err := resolveSockaddr(host, port)
	if err != nil {
		return 0, err
	}

	domain := unix.AF_INET
	if isV6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return 0, err
	}

	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return 0, err
	}
	return fd, nil
}

func listenSocket(host string, port, backlog int) (int, error) {
	sa, isV6, err := resolveSockaddr(host, port)
	if err != nil {
		return 0, err
	}

	domain := unix.AF_INET
	if isV6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
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
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return 0, err
	}
	return fd, nil
}

func acceptConn(listenFD int) (int, api.Address, error) {
	nfd, sa, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK)
	if err != nil {
		return 0, api.Address{}, err
	}
	_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	host, port := addressFromSockaddr(sa)
	return nfd, api.Address{Host: host, Port: port}, nil
}

func readv(fd int, segs [][]byte) (int, error) {
	n, err := unix.Readv(fd, segs)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func writev(fd int, segs [][]byte) (int, error) {
	n, err := unix.Writev(fd, segs)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func closeFD(fd int) error { return unix.Close(fd) }

// localAddress reports the address fd is actually bound to, resolving a
// requested ":0" ephemeral port to the one the kernel assigned.
func localAddress(fd int) (api.Address, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return api.Address{}, err
	}
	host, port := addressFromSockaddr(sa)
	return api.Address{Host: host, Port: port}, nil
}

// socketError reports a completed-but-failed connect via SO_ERROR,
// matching the original evpl_check_conn's getsockopt(SO_ERROR) check.
func socketError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
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
