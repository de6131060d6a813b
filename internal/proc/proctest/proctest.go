// Package proctest provides a scripted proc.Runner for tests.
package proctest

import (
	"sync"
	"sync/atomic"

	"github.com/bryanchriswhite/drop/internal/proc"
)

// Runner records every spec it is asked to run and answers from its maps,
// keyed by program name.
type Runner struct {
	Outputs   map[string]proc.Output
	OutputErr map[string]error
	StartErr  map[string]error
	ExitCodes map[string]int
	// TerminateErr is returned by every started handle's Terminate.
	TerminateErr error
	// WaitErr is returned by every started handle's Wait.
	WaitErr error
	// OnStart runs after a successful Start, e.g. to create the tool's output file.
	OnStart func(spec proc.Spec)
	// OnOutput runs before an Output call returns.
	OnOutput func(spec proc.Spec)

	mu      sync.Mutex
	specs   []proc.Spec
	handles []*Handle
}

func (r *Runner) record(spec proc.Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, spec)
}

func (r *Runner) Start(spec proc.Spec) (proc.Handle, error) {
	r.record(spec)
	if err := r.StartErr[spec.Program]; err != nil {
		return nil, err
	}

	h := &Handle{
		tool:         spec.Tool,
		pid:          1000 + len(r.Specs()),
		Code:         r.ExitCodes[spec.Program],
		TerminateErr: r.TerminateErr,
		WaitErr:      r.WaitErr,
	}
	r.mu.Lock()
	r.handles = append(r.handles, h)
	r.mu.Unlock()

	if r.OnStart != nil {
		r.OnStart(spec)
	}
	return h, nil
}

func (r *Runner) Output(spec proc.Spec) (proc.Output, error) {
	r.record(spec)
	if r.OnOutput != nil {
		r.OnOutput(spec)
	}
	if err := r.OutputErr[spec.Program]; err != nil {
		return proc.Output{}, err
	}
	return r.Outputs[spec.Program], nil
}

// Specs returns every spec seen so far, in order.
func (r *Runner) Specs() []proc.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]proc.Spec(nil), r.specs...)
}

// Programs returns the program names seen so far, in order.
func (r *Runner) Programs() []string {
	var out []string
	for _, s := range r.Specs() {
		out = append(out, s.Program)
	}
	return out
}

// Handles returns the handles created by Start, in order.
func (r *Runner) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Handle(nil), r.handles...)
}

// Handle is a fake running process that counts how it is consumed.
type Handle struct {
	tool string
	pid  int

	Code         int
	TerminateErr error
	WaitErr      error

	Terminates atomic.Int32
	Waits      atomic.Int32
}

// NewHandle creates a standalone fake handle.
func NewHandle(tool string) *Handle {
	return &Handle{tool: tool, pid: 999}
}

func (h *Handle) Pid() int     { return h.pid }
func (h *Handle) Tool() string { return h.tool }

func (h *Handle) Terminate() error {
	h.Terminates.Add(1)
	return h.TerminateErr
}

func (h *Handle) Wait() (proc.ExitStatus, error) {
	h.Waits.Add(1)
	if h.WaitErr != nil {
		return proc.ExitStatus{Code: -1}, h.WaitErr
	}
	return proc.ExitStatus{Code: h.Code}, nil
}
