package db

import (
	"errors"
	"sync/atomic"
)

// ErrDatabaseLocked is returned by every mutation while the advisory write
// lock is engaged. Callers surface it to the user and skip the write.
var ErrDatabaseLocked = errors.New("database is locked, contact the administrator")

// WriteLock is the manual safety switch over all mutations. It is advisory:
// it stops writes issued through this package, nothing more. It is not a
// concurrency primitive and provides no ordering between editors.
type WriteLock struct {
	engaged atomic.Bool
}

func NewWriteLock(engaged bool) *WriteLock {
	l := &WriteLock{}
	l.engaged.Store(engaged)
	return l
}

func (l *WriteLock) Engage()  { l.engaged.Store(true) }
func (l *WriteLock) Release() { l.engaged.Store(false) }

func (l *WriteLock) Engaged() bool { return l.engaged.Load() }
