package stop

import (
	"context"
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/bryanchriswhite/drop/internal/logger"
)

// Hotkey fires on a global key combination.
type Hotkey struct {
	Keys []string
}

// NewHotkey creates a hotkey coordinator from a binding such as "ctrl+shift+q".
func NewHotkey(binding string) (*Hotkey, error) {
	keys, err := ParseHotkey(binding)
	if err != nil {
		return nil, err
	}
	return &Hotkey{Keys: keys}, nil
}

// ParseHotkey converts "Ctrl+Shift+q" into gohook's key list, main key first
// followed by modifiers.
func ParseHotkey(binding string) ([]string, error) {
	var key string
	var mods []string

	for _, part := range strings.Split(strings.ToLower(binding), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			return nil, fmt.Errorf("invalid hotkey %q", binding)
		case "ctrl", "control":
			mods = append(mods, "ctrl")
		case "alt", "option":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		case "win", "cmd", "super", "meta":
			mods = append(mods, "cmd")
		default:
			if key != "" {
				return nil, fmt.Errorf("hotkey %q has more than one non-modifier key", binding)
			}
			key = part
		}
	}

	if key == "" {
		return nil, fmt.Errorf("hotkey %q has no key", binding)
	}
	return append([]string{key}, mods...), nil
}

// Wait installs a global keyboard hook until the binding is pressed or ctx ends.
func (h *Hotkey) Wait(ctx context.Context) error {
	log := logger.WithComponent("hotkey")

	pressed := make(chan struct{})
	var once sync.Once
	hook.Register(hook.KeyDown, h.Keys, func(hook.Event) {
		once.Do(func() { close(pressed) })
	})

	events := hook.Start()
	done := hook.Process(events)
	log.Debug().Strs("keys", h.Keys).Msg("Listening for stop hotkey")

	var err error
	select {
	case <-pressed:
		log.Info().Strs("keys", h.Keys).Msg("Stop requested from hotkey")
	case <-ctx.Done():
		err = ctx.Err()
	}

	hook.End()
	<-done
	return err
}
