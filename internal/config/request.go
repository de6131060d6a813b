package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanchriswhite/drop/internal/capture"
	"github.com/bryanchriswhite/drop/internal/errors"
)

const stillExtension = "png"

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Token returns n random lowercase hex characters.
func Token(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}

// Request resolves the capture request for one run. name overrides the random
// file name; display is the X display to grab from.
func (c *Config) Request(video bool, name, display string) (capture.Request, error) {
	dir, err := ExpandHome(c.Drop.Dir)
	if err != nil {
		return capture.Request{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return capture.Request{}, errors.NewIOError("create output dir", dir, err)
	}

	source := c.Screencast.AudioSource
	if source == "" {
		source = capture.AudioDesktop
	}
	if source != capture.AudioDesktop && source != capture.AudioMic {
		return capture.Request{}, fmt.Errorf("invalid audio source %q (use desktop or mic)", source)
	}

	ext := stillExtension
	format := stillExtension
	if video {
		if format, err = capture.ParseFormat(c.Screencast.Format); err != nil {
			return capture.Request{}, err
		}
		ext = format
	}

	if name == "" {
		length := c.Drop.UniqueLength
		if length <= 0 {
			length = 10
		}
		name = Token(length)
	}

	return capture.Request{
		OutputPath:  filepath.Join(dir, name+"."+ext),
		Format:      format,
		Audio:       c.Screencast.Audio,
		AudioSource: source,
		Border:      c.Screencast.Border,
		Mouse:       c.Screencast.Mouse,
		Transparent: c.Drop.Transparent,
		Delay:       c.Drop.Delay,
		Display:     display,
		ScratchRoot: dir,
		Verbose:     c.Verbose,
	}, nil
}
