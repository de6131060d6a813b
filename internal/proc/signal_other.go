//go:build !unix && !windows

package proc

import (
	"io"
	"os/exec"

	"github.com/bryanchriswhite/drop/internal/errors"
)

func prepare(cmd *exec.Cmd) (io.WriteCloser, error) {
	return nil, nil
}

func terminate(p *process) error {
	return errors.ErrUnsupported
}
