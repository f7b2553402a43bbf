// File: transport/userio/doc.go
// Package userio is the one concrete core/framework.Framework this repo
// ships: an in-process, shared-memory-style loopback datagram transport
// (DATAGRAM_USERIO_LOOPBACK) standing in for an RDMA/DPDK-class
// accelerated transport. It demonstrates the framework plugin contract
// end-to-end — Init/Create/Destroy/Cleanup, a core/poll.UserBackend
// driven by an in-process completion queue instead of a kernel poll —
// without requiring real RDMA hardware.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package userio
