package common

import "errors"

// ErrReentrantCall rejects nested entry into a lock-guarded operation.
var ErrReentrantCall = errors.New("reentrant call")

// CallLock is the re-entry flag guarding operations that hand control to the
// value-transfer collaborator. Execution is serialized per call tree, so a
// plain flag is sufficient; the point is rejecting a nested entry while the
// outer call is still in flight.
type CallLock struct {
	held bool
}

// Acquire takes the lock and returns the release function. The release must
// run on every exit path, including failures.
func (l *CallLock) Acquire() (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	if l.held {
		return nil, ErrReentrantCall
	}
	l.held = true
	return func() { l.held = false }, nil
}

// Held reports whether the lock is currently taken.
func (l *CallLock) Held() bool {
	return l != nil && l.held
}
