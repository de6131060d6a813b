package stop

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/drop/internal/logger"
)

// Signal fires when the drop process itself receives one of Signals,
// e.g. Ctrl+C in the terminal that started the recording.
type Signal struct {
	Signals []os.Signal
}

// NewSignal listens for SIGINT and SIGTERM.
func NewSignal() *Signal {
	return &Signal{Signals: []os.Signal{os.Interrupt, syscall.SIGTERM}}
}

func (s *Signal) Wait(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.Signals...)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		logger.WithComponent("stop").Info().Str("signal", sig.String()).Msg("Stop requested by signal")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
