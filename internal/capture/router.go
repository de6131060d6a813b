package capture

import (
	"fmt"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/proc"
)

// Backends are the collaborators capture strategies are built from.
type Backends struct {
	Runner     proc.Runner
	Transcoder Transcoder
	// Probe reports the X11 screen size. Optional.
	Probe platform.ScreenProbe
	// Native creates OS capture sessions. Nil where the platform has none.
	Native NativeFactory
}

// Router hands out the capture strategy for the detected platform.
type Router struct {
	platform platform.Platform
	backends Backends
}

// NewRouter creates a new capture router
func NewRouter(p platform.Platform, b Backends) *Router {
	if b.Native == nil {
		b.Native = DefaultNativeFactory()
	}
	return &Router{platform: p, backends: b}
}

// Shooter returns the still capture tool for the platform.
func (r *Router) Shooter() Shooter {
	log := logger.WithComponent("capture-router")

	switch {
	case r.platform.Native():
		log.Debug().Msg("Using screencapture for still capture")
		return &Screencapture{Runner: r.backends.Runner}
	case r.platform.DisplayServer == platform.Wayland:
		log.Debug().Msg("Using grim for still capture")
		return &Grim{Runner: r.backends.Runner}
	default:
		log.Debug().Msg("Using import for still capture")
		return &Import{Runner: r.backends.Runner}
	}
}

// Recorder returns the video strategy for kind.
func (r *Router) Recorder(kind Kind) (Recorder, error) {
	log := logger.WithComponent("capture-router")
	log.Debug().Stringer("kind", kind).Str("platform", r.platform.String()).Msg("Selecting recorder")

	switch kind {
	case X11Video:
		return &FFmpeg{Runner: r.backends.Runner, Probe: r.backends.Probe}, nil
	case X11Gif:
		if r.backends.Transcoder == nil {
			return nil, fmt.Errorf("no transcoder for %s", kind)
		}
		return &FFmpeg{Runner: r.backends.Runner, Probe: r.backends.Probe, Transcoder: r.backends.Transcoder, Gif: true}, nil
	case WaylandVideo:
		return &WFRecorder{Runner: r.backends.Runner}, nil
	case WaylandGif:
		if r.backends.Transcoder == nil {
			return nil, fmt.Errorf("no transcoder for %s", kind)
		}
		return &WFRecorder{Runner: r.backends.Runner, Transcoder: r.backends.Transcoder, Gif: true}, nil
	case NativeVideo:
		if r.backends.Native == nil {
			return nil, fmt.Errorf("native capture on %s: %w", r.platform, errors.ErrUnsupported)
		}
		return &Native{New: r.backends.Native}, nil
	default:
		return nil, fmt.Errorf("%s is not a video capture mode", kind)
	}
}
