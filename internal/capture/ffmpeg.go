package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/proc"
	"github.com/bryanchriswhite/drop/internal/selector"
)

// gifFrameRate is the frame rate of raw frame capture for gif output.
const gifFrameRate = "20"

// FFmpeg records an X11 region with ffmpeg's x11grab input.
type FFmpeg struct {
	Runner proc.Runner
	Probe  platform.ScreenProbe
	// Gif records raw pam frames and hands them to Transcoder on stop.
	Gif        bool
	Transcoder Transcoder
}

func (f *FFmpeg) Start(region selector.Region, req Request) (Recording, error) {
	log := logger.WithComponent("ffmpeg")

	display := req.Display
	if display == "" {
		display = platform.DefaultDisplay
	}
	f.checkBounds(region, display)

	var args []string
	intermediate := ""
	if f.Gif {
		intermediate = IntermediatePath(req.OutputPath)
		args = ffmpegGifArgs(region, req, display, intermediate)
	} else {
		var err error
		if args, err = ffmpegVideoArgs(region, req, display); err != nil {
			return nil, err
		}
	}

	h, err := f.Runner.Start(proc.Spec{Tool: "FFMPEG", Program: "ffmpeg", Args: args, Relay: req.Verbose})
	if err != nil {
		return nil, err
	}
	log.Info().Int("pid", h.Pid()).Stringer("region", region).Bool("gif", f.Gif).Msg("Recording started")

	rec := &processRecording{handle: h, program: "ffmpeg", log: log}
	if f.Gif {
		rec.transcoder = f.Transcoder
		rec.intermediate = intermediate
		rec.output = req.OutputPath
		rec.scratchRoot = req.ScratchRoot
	}
	return rec, nil
}

// checkBounds warns when the region runs off the screen, which x11grab rejects.
func (f *FFmpeg) checkBounds(region selector.Region, display string) {
	if f.Probe == nil {
		return
	}
	log := logger.WithComponent("ffmpeg")

	w, h, err := f.Probe(display)
	if err != nil {
		log.Debug().Err(err).Msg("Screen size unavailable")
		return
	}
	if !platform.Contains(w, h, region.X, region.Y, region.Width, region.Height) {
		log.Warn().
			Stringer("region", region).
			Int("screen_width", w).
			Int("screen_height", h).
			Msg("Selected region extends past the screen")
	}
}

// EvenDimensions rounds both sides down to an even number, as required by
// yuv420p encoding.
func EvenDimensions(w, h int) (int, int) {
	return w / 2 * 2, h / 2 * 2
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// grabInput is the x11grab input spec "<display>.<screen>+X,Y".
func grabInput(display string, x, y int) string {
	host := display
	if i := strings.LastIndex(display, ":"); i < 0 || !strings.Contains(display[i:], ".") {
		host += ".0"
	}
	return fmt.Sprintf("%s+%d,%d", host, x, y)
}

func x11GrabArgs(region selector.Region, req Request, display string, extra ...string) []string {
	args := []string{
		"-f", "x11grab",
		"-show_region", flag(req.Border),
		"-draw_mouse", flag(req.Mouse),
	}
	args = append(args, extra...)
	return append(args,
		"-s", fmt.Sprintf("%dx%d", region.Width, region.Height),
		"-i", grabInput(display, region.X, region.Y),
	)
}

// alsaInputArgs returns the audio input for ffmpeg, or nil when audio is off.
func alsaInputArgs(req Request) []string {
	if !req.Audio {
		return nil
	}
	if req.AudioSource == AudioMic {
		return []string{"-f", "alsa", "-i", "hw:0"}
	}
	return []string{"-f", "alsa", "-i", "pulse"}
}

func ffmpegVideoArgs(region selector.Region, req Request, display string) ([]string, error) {
	w, h := EvenDimensions(region.Width, region.Height)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("region %s is too small to record", region)
	}

	args := x11GrabArgs(region, req, display)
	args = append(args, alsaInputArgs(req)...)
	args = append(args,
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "ultrafast",
		"-movflags", "+faststart",
		"-profile:v", "baseline",
		"-level", "3.0",
		"-pix_fmt", "yuv420p",
		"-vf", "scale="+strconv.Itoa(w)+":"+strconv.Itoa(h),
	)
	if req.Audio {
		args = append(args, "-c:a", "aac", "-ac", "2", "-strict", "experimental")
	} else {
		args = append(args, "-an")
	}
	return append(args, req.OutputPath), nil
}

func ffmpegGifArgs(region selector.Region, req Request, display, intermediate string) []string {
	args := x11GrabArgs(region, req, display, "-framerate", gifFrameRate)
	return append(args,
		"-codec:v", "pam",
		"-f", "rawvideo",
		intermediate,
	)
}
