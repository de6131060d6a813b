package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/drop/internal/capture"
	"github.com/bryanchriswhite/drop/internal/config"
	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/postprocess"
	"github.com/bryanchriswhite/drop/internal/proc"
	"github.com/bryanchriswhite/drop/internal/selector"
	"github.com/bryanchriswhite/drop/internal/session"
	"github.com/bryanchriswhite/drop/internal/stop"
)

// newOrchestrator wires the capture session for the detected platform.
func newOrchestrator(cfg *config.Config) (*session.Orchestrator, error) {
	log := logger.WithComponent("drop")

	hint, err := platform.ParseDisplayServer(cfg.DisplayServer)
	if err != nil {
		return nil, err
	}
	detector := platform.NewDetector()
	p := detector.Detect(hint)
	log.Debug().Str("platform", p.String()).Msg("Platform detected")

	runner := proc.NewRunner()

	var probe platform.ScreenProbe
	if p.DisplayServer == platform.X11 {
		probe = platform.X11ScreenSize
	}
	router := capture.NewRouter(p, capture.Backends{
		Runner:     runner,
		Transcoder: postprocess.NewGIF(runner, cfg.Verbose),
		Probe:      probe,
	})

	mode, err := stop.ParseMode(cfg.Screencast.Stop)
	if err != nil {
		return nil, err
	}
	coord, err := stop.New(stop.Options{
		Mode:     mode,
		Hotkey:   cfg.Screencast.Hotkey,
		Platform: p,
		Desktop:  detector.HasDesktop(),
	})
	if err != nil {
		return nil, err
	}

	return session.New(p, selector.New(p, runner), router, coord), nil
}

type captureFunc func(o *session.Orchestrator, ctx context.Context, req capture.Request) (string, error)

// runCapture resolves the request, runs one session and prints the output path.
func runCapture(cmd *cobra.Command, video bool, filename string, run captureFunc) error {
	cfg, err := configMgr.Get()
	if err != nil {
		return err
	}

	req, err := cfg.Request(video, filename, platform.X11Display(os.Getenv))
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}

	// Interrupts before the capture starts abort the session; once recording,
	// the stop coordinator treats them as the stop gesture.
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path, err := run(orch, ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
