// Package stop blocks a recording session until the user asks it to end.
package stop

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/platform"
)

// Coordinator waits for a stop gesture.
//
// Wait blocks the calling goroutine and returns nil once the gesture fires.
// If ctx ends first it returns ctx.Err(). A Coordinator never touches the
// capture process; it only reports that the user is done.
type Coordinator interface {
	Wait(ctx context.Context) error
}

// Func adapts a function to a Coordinator.
type Func func(ctx context.Context) error

func (f Func) Wait(ctx context.Context) error {
	return f(ctx)
}

// Any fires on the first of its coordinators. The first element runs on the
// calling goroutine, which matters for UI loops that must own the main thread.
// A gesture that fired wins over any error, including one returned because a
// sibling released the others first.
type Any []Coordinator

func (a Any) Wait(ctx context.Context) error {
	if len(a) == 0 {
		return fmt.Errorf("no stop gesture configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		settled bool
		result  error
	)
	finish := func(err error) {
		mu.Lock()
		if !settled || err == nil {
			settled = true
			result = err
		}
		mu.Unlock()
		cancel()
	}

	var wg conc.WaitGroup
	for _, c := range a[1:] {
		wg.Go(func() { finish(c.Wait(ctx)) })
	}
	finish(a[0].Wait(ctx))
	wg.Wait()

	return result
}

// Mode names a stop gesture, or a combination of them.
type Mode string

const (
	Auto       Mode = "auto"
	TrayMode   Mode = "tray"
	HotkeyMode Mode = "hotkey"
	SignalMode Mode = "signal"
)

// ParseMode validates a configured stop mode. Empty means Auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Auto, nil
	case Auto, TrayMode, HotkeyMode, SignalMode:
		return m, nil
	default:
		return "", fmt.Errorf("unknown stop mode %q (use auto, tray, hotkey or signal)", s)
	}
}

// Options configures New.
type Options struct {
	Mode     Mode
	Hotkey   string
	Platform platform.Platform
	// Desktop reports whether a graphical session is reachable for tray icons.
	Desktop bool
}

// New builds the coordinator for opts.
// Auto uses the tray where there is a desktop, the hotkey where global key
// grabs work (not on Wayland), and always process signals.
func New(opts Options) (Coordinator, error) {
	log := logger.WithComponent("stop")

	switch opts.Mode {
	case TrayMode:
		return NewTray(), nil
	case HotkeyMode:
		return NewHotkey(opts.Hotkey)
	case SignalMode:
		return NewSignal(), nil
	case Auto, "":
	default:
		return nil, fmt.Errorf("unknown stop mode %q", opts.Mode)
	}

	var gestures Any
	if opts.Desktop {
		gestures = append(gestures, NewTray())
	}
	if opts.Platform.DisplayServer != platform.Wayland && opts.Hotkey != "" {
		hk, err := NewHotkey(opts.Hotkey)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, hk)
	}
	gestures = append(gestures, NewSignal())

	log.Debug().Int("gestures", len(gestures)).Bool("tray", opts.Desktop).Msg("Stop coordinator ready")
	return gestures, nil
}
