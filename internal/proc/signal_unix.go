//go:build unix

package proc

import (
	"io"
	"os/exec"

	"golang.org/x/sys/unix"
)

func prepare(cmd *exec.Cmd) (io.WriteCloser, error) {
	return nil, nil
}

func terminate(p *process) error {
	return unix.Kill(p.Pid(), unix.SIGTERM)
}
