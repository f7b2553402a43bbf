//go:build !linux

// File: transport/tcp/syscalls_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-Linux platforms have no raw-syscall reactor-integrated socket
// path in this repo; STREAM_SOCKET_TCP's Connect/Listen report
// api.ErrNotSupported rather than silently falling back to net.Conn's
// own internal poller, which would fight core/poll's epoll backend for
// the same descriptor.

package tcp

import "github.com/momentics/evplgo/api"

func dial(host string, port int) (int, error) {
	return 0, api.ErrNotSupported
}

func listenSocket(host string, port, backlog int) (int, error) {
	return 0, api.ErrNotSupported
}

func acceptConn(listenFD int) (int, api.Address, error) {
	return 0, api.Address{}, api.ErrNotSupported
}

func readv(fd int, segs [][]byte) (int, error) {
	return 0, api.ErrNotSupported
}

func writev(fd int, segs [][]byte) (int, error) {
	return 0, api.ErrNotSupported
}

func closeFD(fd int) error { return nil }

func socketError(fd int) error { return api.ErrNotSupported }

func localAddress(fd int) (api.Address, error) { return api.Address{}, api.ErrNotSupported }
