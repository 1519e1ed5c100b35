// Package lock serializes booking writes per technician so that the conflict check
// and the following insert or update cannot interleave with another request.
package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires an exclusive lock on key. The returned release func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

func TechnicianKey(technicianID string) string {
	return "lock:technician:" + technicianID
}
