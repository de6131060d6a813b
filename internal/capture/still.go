package capture

import (
	"os"
	"strconv"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/proc"
	"github.com/bryanchriswhite/drop/internal/selector"
)

const screenshotFailed = "failed to take screenshot"

// runStill starts a still capture tool and waits for it straight away.
func runStill(runner proc.Runner, spec proc.Spec) error {
	h, err := runner.Start(spec)
	if err != nil {
		return err
	}

	status, err := h.Wait()
	if err != nil {
		return errors.NewToolExecutionError(screenshotFailed, spec.Program, status.Code).WithCause(err)
	}
	if !status.Success() {
		return errors.NewToolExecutionError(screenshotFailed, spec.Program, status.Code)
	}
	return nil
}

// Import captures an X11 region with ImageMagick's import.
type Import struct {
	Runner proc.Runner
}

func importArgs(region selector.Region, out string) []string {
	return []string{"-window", "root", "-crop", region.Geometry, out}
}

func (s *Import) Capture(region selector.Region, req Request) error {
	return runStill(s.Runner, proc.Spec{
		Tool:    "IMPORT",
		Program: "import",
		Args:    importArgs(region, req.OutputPath),
		Relay:   req.Verbose,
	})
}

// Grim captures a Wayland region.
type Grim struct {
	Runner proc.Runner
}

func grimArgs(region selector.Region, out string) []string {
	return []string{"-g", region.Geometry, out}
}

func (s *Grim) Capture(region selector.Region, req Request) error {
	return runStill(s.Runner, proc.Spec{
		Tool:    "GRIM",
		Program: "grim",
		Args:    grimArgs(region, req.OutputPath),
		Relay:   req.Verbose,
	})
}

// Screencapture runs the macOS screencapture tool, which does its own
// interactive selection. The region passed in is ignored.
type Screencapture struct {
	Runner proc.Runner
}

// DelaysItself is true: the selection happens inside screencapture, so the
// delay is handed to it with -T and starts once the region is picked.
func (s *Screencapture) DelaysItself() bool {
	return true
}

func screencaptureArgs(req Request) []string {
	args := []string{"-i", "-x"}
	if req.Delay > 0 {
		args = append(args, "-T", strconv.Itoa(req.Delay))
	}
	return append(args, req.OutputPath)
}

func (s *Screencapture) Capture(_ selector.Region, req Request) error {
	err := runStill(s.Runner, proc.Spec{
		Tool:    "SCREEN CAPTURE",
		Program: "screencapture",
		Args:    screencaptureArgs(req),
		Relay:   req.Verbose,
	})
	if err != nil {
		return err
	}

	// Escape in the selection UI exits cleanly without writing anything.
	if _, err := os.Stat(req.OutputPath); os.IsNotExist(err) {
		logger.WithComponent("capture").Debug().Str("path", req.OutputPath).Msg("screencapture wrote no file")
		return errors.ErrSelectionCancelled
	}
	return nil
}
