package proc

import (
	"bytes"
	"io"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/logger"
)

// Spec describes one external program invocation.
type Spec struct {
	// Tool labels relayed output and errors, e.g. "FFMPEG".
	Tool    string
	Program string
	Args    []string
	// Relay streams the child's stdout and stderr into the log line by line.
	// When false both streams are discarded.
	Relay bool
}

// ExitStatus is the outcome of a finished process.
type ExitStatus struct {
	Code int
}

// Success reports whether the process exited with status zero.
func (s ExitStatus) Success() bool {
	return s.Code == 0
}

// Handle is a running external process owned by whoever started it.
// It must be consumed by exactly one Wait.
type Handle interface {
	Pid() int
	Tool() string
	// Wait blocks until the process exits. A non-zero exit is reported through
	// ExitStatus, not as an error; the error is reserved for failures of the wait itself.
	Wait() (ExitStatus, error)
	// Terminate asks the process to finish gracefully. It never kills.
	Terminate() error
}

// Output is the captured result of a process run to completion.
type Output struct {
	Status ExitStatus
	Stdout []byte
	Stderr []byte
}

// Runner spawns external processes.
type Runner interface {
	Start(spec Spec) (Handle, error)
	Output(spec Spec) (Output, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	log *zerolog.Logger
}

// NewRunner creates a Runner that spawns real OS processes.
func NewRunner() *ExecRunner {
	return &ExecRunner{log: logger.WithComponent("proc")}
}

// Start spawns spec without waiting for it. Failing to spawn is returned as a
// *errors.ToolSpawnError and is never retried.
func (r *ExecRunner) Start(spec Spec) (Handle, error) {
	cmd := exec.Command(spec.Program, spec.Args...)

	var stdout, stderr io.ReadCloser
	if spec.Relay {
		var err error
		if stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, errors.NewToolSpawnError(spec.Program, err)
		}
		if stderr, err = cmd.StderrPipe(); err != nil {
			return nil, errors.NewToolSpawnError(spec.Program, err)
		}
	}

	stdin, err := prepare(cmd)
	if err != nil {
		return nil, errors.NewToolSpawnError(spec.Program, err)
	}

	r.log.Debug().Str("tool", spec.Tool).Strs("args", spec.Args).Msg("Starting process")

	if err := cmd.Start(); err != nil {
		return nil, errors.NewToolSpawnError(spec.Program, err)
	}

	p := &process{
		cmd:   cmd,
		spec:  spec,
		stdin: stdin,
		log:   r.log,
	}

	// One reader per stream so a full pipe on one side cannot stall the other.
	if spec.Relay {
		p.readers.Go(func() { logger.Relay(r.log, spec.Tool, stdout) })
		p.readers.Go(func() { logger.Relay(r.log, spec.Tool, stderr) })
	}

	r.log.Debug().Str("tool", spec.Tool).Int("pid", cmd.Process.Pid).Msg("Process started")
	return p, nil
}

// Output runs spec to completion and captures both streams.
func (r *ExecRunner) Output(spec Spec) (Output, error) {
	cmd := exec.Command(spec.Program, spec.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Str("tool", spec.Tool).Strs("args", spec.Args).Msg("Running process")

	if err := cmd.Start(); err != nil {
		return Output{}, errors.NewToolSpawnError(spec.Program, err)
	}

	status, err := exitStatus(cmd.Wait())
	if spec.Relay && stderr.Len() > 0 {
		logger.Relay(r.log, spec.Tool, bytes.NewReader(stderr.Bytes()))
	}
	if err != nil {
		return Output{}, err
	}

	return Output{Status: status, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

type process struct {
	cmd     *exec.Cmd
	spec    Spec
	stdin   io.WriteCloser
	readers conc.WaitGroup
	log     *zerolog.Logger

	waitOnce sync.Once
	status   ExitStatus
	waitErr  error
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Tool() string {
	return p.spec.Tool
}

func (p *process) Wait() (ExitStatus, error) {
	p.waitOnce.Do(func() {
		// Pipes must be drained before cmd.Wait closes them.
		p.readers.Wait()
		p.status, p.waitErr = exitStatus(p.cmd.Wait())
		p.log.Debug().
			Str("tool", p.spec.Tool).
			Int("pid", p.cmd.Process.Pid).
			Int("code", p.status.Code).
			Err(p.waitErr).
			Msg("Process exited")
	})
	return p.status, p.waitErr
}

func (p *process) Terminate() error {
	if err := terminate(p); err != nil {
		return errors.NewSignalError(p.spec.Tool, p.Pid(), err)
	}
	return nil
}

// exitStatus folds *exec.ExitError into an ExitStatus so that only genuine
// wait failures surface as errors.
func exitStatus(err error) (ExitStatus, error) {
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitStatus{Code: exitErr.ExitCode()}, nil
	}
	return ExitStatus{Code: -1}, err
}

// TerminateAndWait signals h to stop and always waits for it to exit.
// A failed signal is only logged: some tools still flush and exit on their own,
// and returning early would abandon a half-written output file.
func TerminateAndWait(h Handle, log *zerolog.Logger) (ExitStatus, error) {
	if err := h.Terminate(); err != nil {
		log.Warn().Err(err).Str("tool", h.Tool()).Msg("Failed to properly terminate capture process")
	}
	return h.Wait()
}
