//go:build !linux

// File: transport/udp/syscalls_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package udp

import "github.com/momentics/evplgo/api"

func connectSocket(host string, port int) (int, error) { return 0, api.ErrNotSupported }
func bindSocket(host string, port int) (int, error)     { return 0, api.ErrNotSupported }

func readOne(fd int, buf []byte) (int, error)  { return 0, api.ErrNotSupported }
func writeOne(fd int, buf []byte) (int, error) { return 0, api.ErrNotSupported }

func recvfromOne(fd int, buf []byte) (int, api.Address, error) {
	return 0, api.Address{}, api.ErrNotSupported
}
func sendtoOne(fd int, buf []byte, addr api.Address) (int, error) {
	return 0, api.ErrNotSupported
}

func closeFD(fd int) error { return nil }

func localAddress(fd int) (api.Address, error) { return api.Address{}, api.ErrNotSupported }
