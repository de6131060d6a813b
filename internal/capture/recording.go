package capture

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/proc"
)

const recordFailed = "failed to record screencast"

// processRecording is a video capture backed by an external process.
type processRecording struct {
	handle  proc.Handle
	program string
	log     *zerolog.Logger

	// Set on paths that record raw frames and transcode them afterwards.
	transcoder   Transcoder
	intermediate string
	output       string
	scratchRoot  string

	stopOnce sync.Once
	stopErr  error
	finOnce  sync.Once
	finErr   error
}

func (r *processRecording) Stop() error {
	r.stopOnce.Do(func() {
		status, err := proc.TerminateAndWait(r.handle, r.log)
		if err != nil {
			r.stopErr = errors.NewToolExecutionError(recordFailed, r.program, status.Code).WithCause(err)
			return
		}
		// Encoders exit non-zero when interrupted by SIGTERM; the file is still complete.
		r.log.Debug().Str("tool", r.handle.Tool()).Int("code", status.Code).Msg("Capture process stopped")
	})
	return r.stopErr
}

func (r *processRecording) Finalize() error {
	r.finOnce.Do(func() {
		if r.transcoder == nil {
			return
		}
		if r.stopErr != nil {
			if err := r.transcoder.Discard(r.intermediate); err != nil {
				r.log.Warn().Err(err).Str("path", r.intermediate).Msg("Failed to remove intermediate frames")
			}
			return
		}
		r.finErr = r.transcoder.Transcode(r.intermediate, r.output, r.scratchRoot)
	})
	return r.finErr
}
