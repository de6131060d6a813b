// Package postprocess converts raw recorded frames into the final output file.
package postprocess

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/proc"
)

const generateFailed = "failed to generate output"

// memoryFraction of available memory handed to convert as its working limit.
const memoryFraction = 0.6

// MemoryProbe reports currently available system memory in bytes.
type MemoryProbe func() (uint64, error)

// AvailableMemory reads available memory from the OS.
func AvailableMemory() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Available, nil
}

// MemoryLimitKiB is the convert memory ceiling for avail bytes of free memory.
// It is a resource hint; convert may still exceed it.
func MemoryLimitKiB(avail uint64) uint64 {
	return uint64(float64(avail) / 1024 * memoryFraction)
}

// GIF transcodes a pam frame stream into an optimized animated gif with ImageMagick.
type GIF struct {
	Runner  proc.Runner
	Memory  MemoryProbe
	Verbose bool
	// NewID names scratch directories.
	NewID func() string

	log *zerolog.Logger
}

// NewGIF creates a GIF post-processor using the real memory probe.
func NewGIF(runner proc.Runner, verbose bool) *GIF {
	return &GIF{
		Runner:  runner,
		Memory:  AvailableMemory,
		Verbose: verbose,
		NewID:   uuid.NewString,
	}
}

func (g *GIF) logger() *zerolog.Logger {
	if g.log == nil {
		g.log = logger.WithComponent("postprocess")
	}
	return g.log
}

func convertArgs(limitKiB uint64, scratch, intermediate, output string) []string {
	args := []string{"-set", "delay", "5", "-limit", "disk", "unlimited"}
	if limitKiB > 0 {
		args = append(args, "-limit", "memory", strconv.FormatUint(limitKiB, 10)+"kiB")
	}
	return append(args,
		"-layers", "Optimize",
		"-define", "registry:temporary-path="+scratch,
		intermediate,
		output,
	)
}

// Transcode converts intermediate into output using a fresh scratch directory
// under scratchRoot/.cache. The intermediate file and scratch directory are
// removed before Transcode returns, whether or not conversion succeeded.
func (g *GIF) Transcode(intermediate, output, scratchRoot string) (err error) {
	log := g.logger()

	newID := g.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	scratch := filepath.Join(scratchRoot, ".cache", newID())

	defer func() {
		cerr := cleanup(intermediate, scratch)
		if cerr == nil {
			return
		}
		if err != nil {
			log.Warn().Err(cerr).Msg("Cleanup after failed transcode did not complete")
			return
		}
		err = cerr
	}()

	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return errors.NewIOError("create scratch dir", scratch, err)
	}

	var limit uint64
	if g.Memory != nil {
		avail, merr := g.Memory()
		if merr != nil {
			log.Warn().Err(merr).Msg("Available memory unknown, running convert without a memory limit")
		} else {
			limit = MemoryLimitKiB(avail)
		}
	}
	log.Debug().Uint64("memory_limit_kib", limit).Str("scratch", scratch).Msg("Transcoding gif")

	h, err := g.Runner.Start(proc.Spec{
		Tool:    "CONVERT",
		Program: "convert",
		Args:    convertArgs(limit, scratch, intermediate, output),
		Relay:   g.Verbose,
	})
	if err != nil {
		return err
	}

	status, err := h.Wait()
	if err != nil {
		return errors.NewToolExecutionError(generateFailed, "convert", status.Code).WithCause(err)
	}
	if !status.Success() {
		return errors.NewToolExecutionError(generateFailed, "convert", status.Code)
	}
	return nil
}

// Discard removes the intermediate file without converting it.
func (g *GIF) Discard(intermediate string) error {
	return removeFile(intermediate)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError("remove", path, err)
	}
	return nil
}

// cleanup removes both temporary artifacts. It is safe to call repeatedly.
func cleanup(intermediate, scratch string) error {
	var errs []error
	if err := removeFile(intermediate); err != nil {
		errs = append(errs, err)
	}
	if err := os.RemoveAll(scratch); err != nil {
		errs = append(errs, errors.NewIOError("remove", scratch, err))
	}
	return errors.Join(errs...)
}
