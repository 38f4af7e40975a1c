package common

import "errors"

// ErrModulePaused is returned when a mutating call hits a paused module.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the operator-controlled pause switches.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects mutating operations against a paused module. A nil view
// means pausing is not configured and everything is allowed.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
