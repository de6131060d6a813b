package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/bryanchriswhite/drop/internal/logger"
)

// DisplayServer identifies the windowing system capture tools must talk to.
type DisplayServer string

const (
	X11     DisplayServer = "x11"
	Wayland DisplayServer = "wayland"
	// Quartz is the macOS window server; capture goes through native APIs.
	Quartz DisplayServer = "quartz"
)

// ParseDisplayServer validates a user supplied display server hint.
// An empty hint is valid and means "detect".
func ParseDisplayServer(s string) (DisplayServer, error) {
	switch DisplayServer(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case X11:
		return X11, nil
	case Wayland:
		return Wayland, nil
	default:
		return "", fmt.Errorf("unknown display server %q (use x11 or wayland)", s)
	}
}

// Platform is decided once at startup and drives strategy selection.
type Platform struct {
	OS            string
	DisplayServer DisplayServer
}

// Native reports whether capture uses the OS native capture API rather than external tools.
func (p Platform) Native() bool {
	return p.OS == "darwin"
}

func (p Platform) String() string {
	return p.OS + "/" + string(p.DisplayServer)
}

// Detector resolves the Platform. Its lookups are swappable for tests.
type Detector struct {
	GOOS        string
	Getenv      func(string) string
	SessionType func() (string, error)
}

// NewDetector returns a Detector bound to the running process.
func NewDetector() Detector {
	return Detector{
		GOOS:        runtime.GOOS,
		Getenv:      os.Getenv,
		SessionType: LogindSessionType,
	}
}

// Detect resolves the display server in priority order: explicit hint,
// XDG_SESSION_TYPE, the logind session type, WAYLAND_DISPLAY, then X11.
func (d Detector) Detect(hint DisplayServer) Platform {
	log := logger.WithComponent("platform")

	if d.GOOS == "darwin" {
		return Platform{OS: d.GOOS, DisplayServer: Quartz}
	}

	if hint != "" {
		return Platform{OS: d.GOOS, DisplayServer: hint}
	}

	if ds, err := ParseDisplayServer(d.Getenv("XDG_SESSION_TYPE")); err == nil && ds != "" {
		log.Debug().Str("display_server", string(ds)).Msg("Display server from XDG_SESSION_TYPE")
		return Platform{OS: d.GOOS, DisplayServer: ds}
	}

	if d.SessionType != nil {
		st, err := d.SessionType()
		if err != nil {
			log.Debug().Err(err).Msg("logind session type unavailable")
		} else if ds, err := ParseDisplayServer(st); err == nil && ds != "" {
			log.Debug().Str("display_server", string(ds)).Msg("Display server from logind")
			return Platform{OS: d.GOOS, DisplayServer: ds}
		}
	}

	if d.Getenv("WAYLAND_DISPLAY") != "" {
		return Platform{OS: d.GOOS, DisplayServer: Wayland}
	}

	return Platform{OS: d.GOOS, DisplayServer: X11}
}

// HasDesktop reports whether a graphical session is reachable, e.g. for tray icons.
func (d Detector) HasDesktop() bool {
	if d.GOOS == "darwin" {
		return true
	}
	return d.Getenv("DISPLAY") != "" || d.Getenv("WAYLAND_DISPLAY") != ""
}
