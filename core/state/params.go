package state

import (
	"errors"
	"strings"
)

var errNilRecord = errors.New("state: nil record")

func modulePausedKey(module string) []byte {
	return prefixedKey(modulePausedPrefix, []byte(strings.ToLower(strings.TrimSpace(module))))
}

// ModulePaused reports whether the module has been paused by an administrator.
func (m *Manager) ModulePaused(module string) (bool, error) {
	var paused bool
	if _, err := m.KVGet(modulePausedKey(module), &paused); err != nil {
		return false, err
	}
	return paused, nil
}

// SetModulePaused toggles the pause flag for module.
func (m *Manager) SetModulePaused(module string, paused bool) error {
	if !paused {
		return m.KVDelete(modulePausedKey(module))
	}
	return m.KVPut(modulePausedKey(module), true)
}
