package capture

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/selector"
)

// Audio sources accepted in Request.AudioSource.
const (
	AudioDesktop = "desktop"
	AudioMic     = "mic"
)

// Video output formats.
const (
	FormatMP4 = "mp4"
	// FormatGIF selects the animated image output path for video capture.
	FormatGIF = "gif"
)

// videoFormats lists the containers the recorders can write. Everything but
// gif is encoded as H.264 with AAC audio.
var videoFormats = []string{FormatMP4, "mkv", "mov", FormatGIF}

// ParseFormat normalizes a video format name. Empty means mp4.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f == "" {
		return FormatMP4, nil
	}
	if !slices.Contains(videoFormats, f) {
		return "", fmt.Errorf("unsupported video format %q (use %s)", s, strings.Join(videoFormats, ", "))
	}
	return f, nil
}

// Request is the resolved configuration for one capture. It is read-only.
type Request struct {
	OutputPath  string
	Format      string
	Audio       bool
	AudioSource string
	Border      bool
	Mouse       bool
	Transparent bool
	// Delay is the startup delay in seconds applied after selection.
	Delay int
	// Display is the X display to grab from, e.g. ":0".
	Display string
	// ScratchRoot is the directory under which transcode scratch space is created.
	ScratchRoot string
	Verbose     bool
}

// Shooter captures a still image of a region. It returns once the file is written.
type Shooter interface {
	Capture(region selector.Region, req Request) error
}

// SelfTimed is implemented by shooters whose tool runs its own selection and
// applies Request.Delay after it. Callers must not delay those captures again.
type SelfTimed interface {
	DelaysItself() bool
}

// DelaysItself reports whether s applies the startup delay on its own.
func DelaysItself(s Shooter) bool {
	st, ok := s.(SelfTimed)
	return ok && st.DelaysItself()
}

// Recorder starts a video capture of a region.
type Recorder interface {
	Start(region selector.Region, req Request) (Recording, error)
}

// Recording is a running video capture.
type Recording interface {
	// Stop ends the capture gracefully. It returns only once nothing is
	// writing to the output any more.
	Stop() error
	// Finalize produces the output file from what was recorded. It must be
	// called once after Stop, even when Stop failed, so that intermediate
	// files are removed.
	Finalize() error
}

// Transcoder turns an intermediate raw frame file into the final output.
// Both methods remove the intermediate whatever the outcome.
type Transcoder interface {
	Transcode(intermediate, output, scratchRoot string) error
	Discard(intermediate string) error
}

// Kind enumerates the capture strategies.
type Kind int

const (
	Still Kind = iota
	X11Video
	X11Gif
	WaylandVideo
	WaylandGif
	NativeVideo
)

func (k Kind) String() string {
	switch k {
	case Still:
		return "still"
	case X11Video:
		return "x11-video"
	case X11Gif:
		return "x11-gif"
	case WaylandVideo:
		return "wayland-video"
	case WaylandGif:
		return "wayland-gif"
	case NativeVideo:
		return "native-video"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Resolve picks the capture strategy for a platform, mode and video format.
func Resolve(p platform.Platform, video bool, format string) (Kind, error) {
	if !video {
		return Still, nil
	}

	gif := strings.EqualFold(format, FormatGIF)
	switch {
	case p.Native():
		if gif {
			return 0, fmt.Errorf("%s output on %s: %w", format, p, errors.ErrUnsupported)
		}
		return NativeVideo, nil
	case p.DisplayServer == platform.Wayland && gif:
		return WaylandGif, nil
	case p.DisplayServer == platform.Wayland:
		return WaylandVideo, nil
	case gif:
		return X11Gif, nil
	default:
		return X11Video, nil
	}
}

// IntermediatePath is where raw frames are written before transcoding to output.
func IntermediatePath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".pam"
}
