// Package selector runs the interactive region selection tools and parses
// their output into a Region.
package selector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/proc"
)

// CancelToken marks a cancelled selection in selector output.
const CancelToken = "Cancel"

// Region is one completed selection. It is immutable once parsed.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	// Geometry is the selector's own encoding of the rectangle, e.g. "200x300+100+50"
	// for slop or "100,50 200x300" for slurp. Some capture tools take it verbatim.
	Geometry string
	ID       string
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Selector lets the user pick a screen region.
// A user cancellation is reported as errors.ErrSelectionCancelled, and so is
// ctx ending while the tool runs: Ctrl+C reaches the selection tool as well.
type Selector interface {
	Select(ctx context.Context, transparent bool) (Region, error)
}

// New returns the selector for p.
func New(p platform.Platform, runner proc.Runner) Selector {
	switch {
	case p.Native():
		return Interactive{}
	case p.DisplayServer == platform.Wayland:
		return &Slurp{Runner: runner}
	default:
		return &Slop{Runner: runner}
	}
}

// Parse reads selector output. Two layouts are accepted: six whitespace or line
// separated tokens "x y w h geometry id", and the older key=value lines
// (X=, Y=, W=, H=, G=, ID=, Cancel=). A cancel token anywhere wins.
func Parse(out string) (Region, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return Region{}, fmt.Errorf("empty selection output")
	}

	for _, f := range fields {
		if strings.EqualFold(f, CancelToken) || strings.EqualFold(f, CancelToken+"=true") {
			return Region{}, errors.ErrSelectionCancelled
		}
	}

	if strings.Contains(fields[0], "=") {
		return parseKeyValue(fields)
	}

	if len(fields) != 6 {
		return Region{}, fmt.Errorf("expected 6 selection tokens, got %d: %q", len(fields), strings.TrimSpace(out))
	}
	return build(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])
}

func parseKeyValue(fields []string) (Region, error) {
	kv := make(map[string]string, len(fields))
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return Region{}, fmt.Errorf("malformed selection line %q", f)
		}
		kv[k] = v
	}

	for _, k := range []string{"X", "Y", "W", "H", "G", "ID"} {
		if _, ok := kv[k]; !ok {
			return Region{}, fmt.Errorf("selection output missing %s", k)
		}
	}
	return build(kv["X"], kv["Y"], kv["W"], kv["H"], kv["G"], kv["ID"])
}

func build(x, y, w, h, geometry, id string) (Region, error) {
	var r Region
	var err error
	if r.X, err = atoi("x", x); err != nil {
		return Region{}, err
	}
	if r.Y, err = atoi("y", y); err != nil {
		return Region{}, err
	}
	if r.Width, err = atoi("width", w); err != nil {
		return Region{}, err
	}
	if r.Height, err = atoi("height", h); err != nil {
		return Region{}, err
	}
	r.Geometry = geometry
	r.ID = id
	return r, nil
}

func atoi(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %s %q", name, s)
	}
	return n, nil
}
