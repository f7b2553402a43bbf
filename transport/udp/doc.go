// File: transport/udp/doc.go
// Package udp implements the DATAGRAM_SOCKET_UDP protocol vtable: a
// connected variant (Connect) reusing core/bind's send/recv plumbing
// with per-message (EOM-gated) writes, and an unconnected variant
// (Listen) with its own single multi-peer Bind, since a listening UDP
// socket's one-fd-many-peers shape doesn't fit core/bind's one-fd-one-
// peer ring model.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package udp
