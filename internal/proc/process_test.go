//go:build unix

package proc

import (
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/drop/internal/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestOutputCapturesStdoutAndStatus(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	out, err := r.Output(Spec{Tool: "SH", Program: "sh", Args: []string{"-c", "echo 100 50 200 300; exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, "100 50 200 300\n", string(out.Stdout))
	assert.Equal(t, 3, out.Status.Code)
	assert.False(t, out.Status.Success())
}

func TestStartMissingProgramIsSpawnFailure(t *testing.T) {
	r := NewRunner()

	_, err := r.Start(Spec{Tool: "NOPE", Program: "drop-test-definitely-missing-binary"})
	require.Error(t, err)

	var spawnErr *errors.ToolSpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, "drop-test-definitely-missing-binary", spawnErr.Tool)
}

func TestStartRelayDrainsBothStreams(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	// Write more than a pipe buffer to stderr before touching stdout; with a
	// single shared reader this would deadlock.
	script := `i=0; while [ $i -lt 2000 ]; do echo "err line $i" >&2; i=$((i+1)); done; echo done`
	h, err := r.Start(Spec{Tool: "SH", Program: "sh", Args: []string{"-c", script}, Relay: true})
	require.NoError(t, err)

	done := make(chan ExitStatus, 1)
	go func() {
		status, _ := h.Wait()
		done <- status
	}()

	select {
	case status := <-done:
		assert.True(t, status.Success())
	case <-time.After(10 * time.Second):
		t.Fatal("process did not finish; relay readers are blocking")
	}
}

func TestTerminateStopsLongRunningProcess(t *testing.T) {
	requireShell(t)
	r := NewRunner()

	h, err := r.Start(Spec{Tool: "SLEEP", Program: "sh", Args: []string{"-c", "exec sleep 30"}})
	require.NoError(t, err)
	assert.Greater(t, h.Pid(), 0)

	nop := zerolog.Nop()
	start := time.Now()
	status, err := TerminateAndWait(h, &nop)
	require.NoError(t, err)
	assert.False(t, status.Success())
	assert.Less(t, time.Since(start), 10*time.Second)
}

type fakeHandle struct {
	terminateErr error
	terminates   atomic.Int32
	waits        atomic.Int32
}

func (f *fakeHandle) Pid() int     { return 4242 }
func (f *fakeHandle) Tool() string { return "FAKE" }
func (f *fakeHandle) Terminate() error {
	f.terminates.Add(1)
	return f.terminateErr
}
func (f *fakeHandle) Wait() (ExitStatus, error) {
	f.waits.Add(1)
	return ExitStatus{Code: 0}, nil
}

func TestTerminateAndWaitWaitsEvenWhenSignalFails(t *testing.T) {
	nop := zerolog.Nop()
	for _, termErr := range []error{nil, errors.NewSignalError("FAKE", 4242, errors.New("no such process"))} {
		h := &fakeHandle{terminateErr: termErr}

		_, err := TerminateAndWait(h, &nop)
		require.NoError(t, err)
		assert.EqualValues(t, 1, h.terminates.Load())
		assert.EqualValues(t, 1, h.waits.Load())
	}
}
