// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for the concurrency module.

package concurrency

import "errors"

// ErrQueueFull indicates a bounded LockFreeQueue rejected an Enqueue
// because its ring is at capacity.
var ErrQueueFull = errors.New("lock-free queue is full")
