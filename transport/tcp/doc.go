// File: transport/tcp/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package tcp implements the STREAM_SOCKET_TCP protocol vtable: a
// non-blocking, single-reactor TCP transport whose Connect/Listen paths
// wire core/bind's drain routines to raw readv(2)/writev(2) syscalls
// registered with the runtime's poll.Backend, grounded on the original
// evpl core's socket/tcp.c connect/accept/read/write paths.
package tcp
