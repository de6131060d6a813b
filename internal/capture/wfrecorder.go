package capture

import (
	"fmt"

	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/proc"
	"github.com/bryanchriswhite/drop/internal/selector"
)

// WFRecorder records a region on wlroots based Wayland compositors.
type WFRecorder struct {
	Runner     proc.Runner
	Gif        bool
	Transcoder Transcoder
}

// pulse device names understood by wf-recorder's --audio.
func wfAudioArgs(req Request) []string {
	if !req.Audio {
		return nil
	}
	if req.AudioSource == AudioMic {
		return []string{"--audio=@DEFAULT_SOURCE@"}
	}
	return []string{"--audio=@DEFAULT_MONITOR@"}
}

// evenGeometry re-encodes the region for -g with even dimensions, since
// wf-recorder has no scale step of its own before the yuv420p encoder.
func evenGeometry(region selector.Region) (string, error) {
	w, h := EvenDimensions(region.Width, region.Height)
	if w == 0 || h == 0 {
		return "", fmt.Errorf("region %s is too small to record", region)
	}
	return fmt.Sprintf("%d,%d %dx%d", region.X, region.Y, w, h), nil
}

func wfVideoArgs(region selector.Region, req Request) ([]string, error) {
	geometry, err := evenGeometry(region)
	if err != nil {
		return nil, err
	}
	args := []string{"-g", geometry}
	args = append(args, wfAudioArgs(req)...)
	return append(args, "--file", req.OutputPath), nil
}

func wfGifArgs(region selector.Region, intermediate string) []string {
	return []string{
		"-g", region.Geometry,
		"-c", "pam",
		"-m", "rawvideo",
		"-r", gifFrameRate,
		"--file", intermediate,
	}
}

func (w *WFRecorder) Start(region selector.Region, req Request) (Recording, error) {
	log := logger.WithComponent("wf-recorder")

	var args []string
	intermediate := ""
	if w.Gif {
		intermediate = IntermediatePath(req.OutputPath)
		args = wfGifArgs(region, intermediate)
	} else {
		var err error
		if args, err = wfVideoArgs(region, req); err != nil {
			return nil, err
		}
	}

	h, err := w.Runner.Start(proc.Spec{Tool: "WF-RECORDER", Program: "wf-recorder", Args: args, Relay: req.Verbose})
	if err != nil {
		return nil, err
	}
	log.Info().Int("pid", h.Pid()).Stringer("region", region).Bool("gif", w.Gif).Msg("Recording started")

	rec := &processRecording{handle: h, program: "wf-recorder", log: log}
	if w.Gif {
		rec.transcoder = w.Transcoder
		rec.intermediate = intermediate
		rec.output = req.OutputPath
		rec.scratchRoot = req.ScratchRoot
	}
	return rec, nil
}
