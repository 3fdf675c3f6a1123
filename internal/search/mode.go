package search

import (
	"fmt"
	"strings"
)

// Mode selects how query edits reach the catalog.
type Mode int

const (
	// ModeRemote fetches from the catalog on every query change.
	ModeRemote Mode = iota
	// ModeLocal fetches a seed collection once and filters it locally as the
	// query changes.
	ModeLocal
)

func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModeLocal:
		return "local"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a config value into a Mode. Blank means remote.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remote":
		return ModeRemote, nil
	case "local":
		return ModeLocal, nil
	default:
		return ModeRemote, fmt.Errorf("unknown filter mode %q", s)
	}
}
