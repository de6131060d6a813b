package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/proc"
)

const selectFailed = "region selection failed"

// interrupted reports a selection that ended because ctx did.
func interrupted(ctx context.Context) error {
	return fmt.Errorf("region selection interrupted: %w", errors.Join(errors.ErrSelectionCancelled, ctx.Err()))
}

// slop output format: x y w h geometry id
const slopFormat = "%x %y %w %h %g %i"

// Slop selects a region on X11.
type Slop struct {
	Runner proc.Runner
}

func slopArgs(transparent bool) []string {
	if transparent {
		return []string{"-l", "-c", "0.3,0.4,0.6,0.4", "-f", slopFormat}
	}
	return []string{"-b", "5", "-c", "0.3,0.4,0.6,1", "-f", slopFormat}
}

func (s *Slop) Select(ctx context.Context, transparent bool) (Region, error) {
	if ctx.Err() != nil {
		return Region{}, interrupted(ctx)
	}
	out, err := s.Runner.Output(proc.Spec{Tool: "SLOP", Program: "slop", Args: slopArgs(transparent)})
	if err != nil {
		return Region{}, err
	}
	if !out.Status.Success() {
		if ctx.Err() != nil {
			return Region{}, interrupted(ctx)
		}
		return Region{}, errors.NewToolExecutionError(selectFailed, "slop", out.Status.Code)
	}

	region, err := Parse(string(out.Stdout))
	if err != nil {
		return Region{}, err
	}
	logger.WithComponent("selector").Debug().Stringer("region", region).Str("id", region.ID).Msg("Region selected")
	return region, nil
}

// slurp has no cancel token; it exits 1 and says so on stderr.
const slurpCancelled = "selection cancelled"

// Slurp selects a region on wlroots based Wayland compositors.
type Slurp struct {
	Runner proc.Runner
}

func slurpArgs(transparent bool) []string {
	if transparent {
		return []string{"-b", "#4d66994d", "-c", "#4d6699ff", "-w", "0", "-f", "%x %y %w %h"}
	}
	return []string{"-b", "#00000000", "-c", "#4d6699ff", "-w", "5", "-f", "%x %y %w %h"}
}

func (s *Slurp) Select(ctx context.Context, transparent bool) (Region, error) {
	if ctx.Err() != nil {
		return Region{}, interrupted(ctx)
	}
	out, err := s.Runner.Output(proc.Spec{Tool: "SLURP", Program: "slurp", Args: slurpArgs(transparent)})
	if err != nil {
		return Region{}, err
	}
	if !out.Status.Success() {
		if ctx.Err() != nil {
			return Region{}, interrupted(ctx)
		}
		if strings.Contains(string(out.Stderr), slurpCancelled) {
			return Region{}, errors.ErrSelectionCancelled
		}
		return Region{}, errors.NewToolExecutionError(selectFailed, "slurp", out.Status.Code)
	}
	return parseSlurp(string(out.Stdout))
}

func parseSlurp(out string) (Region, error) {
	fields := strings.Fields(out)
	if len(fields) != 4 {
		return Region{}, fmt.Errorf("expected 4 slurp tokens, got %d: %q", len(fields), strings.TrimSpace(out))
	}
	geometry := fmt.Sprintf("%s,%s %sx%s", fields[0], fields[1], fields[2], fields[3])
	return build(fields[0], fields[1], fields[2], fields[3], geometry, "wayland")
}

// Interactive is used where the capture tool runs its own selection UI
// (macOS screencapture). It returns immediately with an empty region.
type Interactive struct{}

func (Interactive) Select(ctx context.Context, _ bool) (Region, error) {
	if ctx.Err() != nil {
		return Region{}, interrupted(ctx)
	}
	return Region{ID: "interactive"}, nil
}
