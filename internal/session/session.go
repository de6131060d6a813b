// Package session runs one capture from region selection to a finished file.
package session

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/drop/internal/capture"
	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/selector"
	"github.com/bryanchriswhite/drop/internal/stop"
)

// State is a step of a capture session.
type State int

const (
	Idle State = iota
	Selecting
	Cancelled
	Delaying
	Capturing
	Stopping
	Finalizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Cancelled:
		return "cancelled"
	case Delaying:
		return "delaying"
	case Capturing:
		return "capturing"
	case Stopping:
		return "stopping"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Strategies hands out capture strategies. *capture.Router implements it.
type Strategies interface {
	Shooter() capture.Shooter
	Recorder(kind capture.Kind) (capture.Recorder, error)
}

// Orchestrator composes selection, capture and stop handling.
// It runs a single session at a time.
type Orchestrator struct {
	Platform   platform.Platform
	Selector   selector.Selector
	Strategies Strategies
	Stop       stop.Coordinator
	// Sleep waits out the startup delay. Defaults to a ctx-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnTransition observes every state change.
	OnTransition func(from, to State)

	state State
	log   *zerolog.Logger
}

// New creates an orchestrator for p.
func New(p platform.Platform, sel selector.Selector, strategies Strategies, coord stop.Coordinator) *Orchestrator {
	return &Orchestrator{
		Platform:   p,
		Selector:   sel,
		Strategies: strategies,
		Stop:       coord,
	}
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) logger() *zerolog.Logger {
	if o.log == nil {
		o.log = logger.WithComponent("session")
	}
	return o.log
}

func (o *Orchestrator) transition(to State) {
	from := o.state
	o.state = to
	o.logger().Debug().Stringer("from", from).Stringer("state", to).Msg("Session state changed")
	if o.OnTransition != nil {
		o.OnTransition(from, to)
	}
}

// fail moves to the terminal state matching err and returns it.
func (o *Orchestrator) fail(err error) error {
	if errors.IsCancelled(err) {
		o.transition(Cancelled)
	} else {
		o.transition(Failed)
	}
	return err
}

// CaptureStill selects a region and writes a still image to req.OutputPath.
func (o *Orchestrator) CaptureStill(ctx context.Context, req capture.Request) (string, error) {
	o.state = Idle
	shooter := o.Strategies.Shooter()

	delay := req.Delay
	if capture.DelaysItself(shooter) {
		delay = 0
	}

	region, err := o.selectAndDelay(ctx, req.Transparent, delay)
	if err != nil {
		return "", o.fail(err)
	}

	o.transition(Capturing)
	if err := shooter.Capture(region, req); err != nil {
		return "", o.fail(err)
	}

	return o.finish(req.OutputPath)
}

// CaptureVideo selects a region and records it to req.OutputPath until the
// stop coordinator fires.
func (o *Orchestrator) CaptureVideo(ctx context.Context, req capture.Request) (string, error) {
	o.state = Idle
	log := o.logger()

	// Resolve before selection so a configuration the platform cannot record
	// fails without asking the user for a region first.
	kind, err := capture.Resolve(o.Platform, true, req.Format)
	if err != nil {
		return "", o.fail(err)
	}
	recorder, err := o.Strategies.Recorder(kind)
	if err != nil {
		return "", o.fail(err)
	}

	region, err := o.selectAndDelay(ctx, req.Transparent, req.Delay)
	if err != nil {
		return "", o.fail(err)
	}

	o.transition(Capturing)
	rec, err := recorder.Start(region, req)
	if err != nil {
		return "", o.fail(err)
	}
	log.Info().Stringer("kind", kind).Stringer("region", region).Msg("Recording, waiting for stop")

	// Whatever ends the wait, the capture must still be stopped and finalized.
	if err := o.Stop.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			// An interrupt of drop itself is a stop request too.
			log.Debug().Err(err).Msg("Interrupted while recording, stopping capture")
		} else {
			log.Warn().Err(err).Msg("Stop coordinator ended without a gesture, stopping capture")
		}
	}

	o.transition(Stopping)
	stopErr := rec.Stop()

	o.transition(Finalizing)
	finErr := rec.Finalize()

	if stopErr != nil {
		return "", o.fail(stopErr)
	}
	if finErr != nil {
		return "", o.fail(finErr)
	}
	return o.finish(req.OutputPath)
}

func (o *Orchestrator) selectAndDelay(ctx context.Context, transparent bool, delay int) (selector.Region, error) {
	o.transition(Selecting)
	region, err := o.Selector.Select(ctx, transparent)
	if err != nil {
		return selector.Region{}, err
	}
	o.logger().Debug().Stringer("region", region).Str("id", region.ID).Msg("Region selected")

	if delay <= 0 {
		return region, nil
	}

	o.transition(Delaying)
	sleep := o.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	if err := sleep(ctx, time.Duration(delay)*time.Second); err != nil {
		return selector.Region{}, fmt.Errorf("aborted during startup delay: %w", errors.Join(errors.ErrSelectionCancelled, err))
	}
	return region, nil
}

// finish checks that the capture left a file behind.
func (o *Orchestrator) finish(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", o.fail(errors.NewIOError("missing output", path, err))
	}
	o.transition(Done)
	o.logger().Info().Str("path", path).Msg("Capture complete")
	return path, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
