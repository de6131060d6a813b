package stop

import (
	"context"
	_ "embed"
	"sync/atomic"

	"github.com/getlantern/systray"

	"github.com/bryanchriswhite/drop/internal/logger"
)

// recordingIcon is a red dot shown while a recording is running.
// Indicator hosts without an icon render an empty slot, so one is always set.
//
//go:embed recording.png
var recordingIcon []byte

// Tray shows a status icon with a "Stop Recording" menu item.
type Tray struct {
	Title   string
	Tooltip string
	Icon    []byte
}

// NewTray creates a tray coordinator with the default labels and icon.
func NewTray() *Tray {
	return &Tray{Title: "drop", Tooltip: "drop is recording", Icon: recordingIcon}
}

// Wait runs the tray event loop on the calling goroutine until the menu item
// is clicked or ctx ends.
func (t *Tray) Wait(ctx context.Context) error {
	log := logger.WithComponent("tray")
	var clicked atomic.Bool

	onReady := func() {
		if len(t.Icon) > 0 {
			systray.SetIcon(t.Icon)
		}
		systray.SetTitle(t.Title)
		systray.SetTooltip(t.Tooltip)
		item := systray.AddMenuItem("Stop Recording", "Stop the recording and save it")

		go func() {
			select {
			case <-item.ClickedCh:
				log.Info().Msg("Stop requested from tray")
				clicked.Store(true)
			case <-ctx.Done():
			}
			systray.Quit()
		}()
	}

	systray.Run(onReady, func() {})

	if clicked.Load() {
		return nil
	}
	return ctx.Err()
}
