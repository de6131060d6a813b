package capture

import (
	"fmt"
	"sync"

	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/selector"
)

// NativeSession is an OS screen recording session that writes straight to a file.
type NativeSession interface {
	Start() error
	Stop() error
}

// NativeFactory builds a session recording region to req.OutputPath.
type NativeFactory func(region selector.Region, req Request) (NativeSession, error)

// nativeFactory is set by platform-specific files via init().
var nativeFactory NativeFactory

// DefaultNativeFactory returns the platform's native session factory, or nil.
func DefaultNativeFactory() NativeFactory {
	return nativeFactory
}

// Native records through an OS capture session instead of a subprocess.
type Native struct {
	New NativeFactory
}

func (n *Native) Start(region selector.Region, req Request) (Recording, error) {
	s, err := n.New(region, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordFailed, err)
	}
	if err := s.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", recordFailed, err)
	}
	logger.WithComponent("native").Info().Str("path", req.OutputPath).Msg("Recording started")
	return &nativeRecording{session: s}, nil
}

type nativeRecording struct {
	session NativeSession
	once    sync.Once
	err     error
}

func (r *nativeRecording) Stop() error {
	r.once.Do(func() {
		if err := r.session.Stop(); err != nil {
			r.err = fmt.Errorf("%s: %w", recordFailed, err)
		}
	})
	return r.err
}

// Finalize is a no-op: the session writes the output file directly.
func (r *nativeRecording) Finalize() error {
	return nil
}
