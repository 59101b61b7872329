package common

import "errors"

// ErrModulePaused rejects mutating entry points while the named module switch
// is engaged.
var ErrModulePaused = errors.New("module paused")

// Failure categories shared by the native engines. Engines wrap these with
// operation-specific detail so callers can classify with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTransferFailed  = errors.New("transfer failed")
)

// PauseView reports whether a module's mutating entry points are suspended.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the pause switch for the module is set.
// A nil view or empty module name never blocks; recovery paths simply skip
// the guard.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
