package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// Module names used with Guard.
const (
	ModuleCreator      = "creator"
	ModuleStream       = "stream"
	ModulePoints       = "points"
	ModuleSettlement   = "settlement"
	ModuleSubscription = "subscription"
	ModuleChallenge    = "challenge"
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
