//go:build windows

package proc

import (
	"fmt"
	"io"
	"os/exec"
)

// Windows has no SIGTERM for console children. The capture tools we drive
// (ffmpeg) stop cleanly when they read "q" on stdin, so keep a pipe open for that.
func prepare(cmd *exec.Cmd) (io.WriteCloser, error) {
	return cmd.StdinPipe()
}

func terminate(p *process) error {
	if p.stdin == nil {
		return fmt.Errorf("no stdin pipe to request stop")
	}
	_, werr := io.WriteString(p.stdin, "q\n")
	cerr := p.stdin.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
