package commands

import (
	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/drop/internal/session"
)

var videoFilename string

var videoCmd = &cobra.Command{
	Use:     "video",
	Aliases: []string{"screencast", "v"},
	Short:   "Record a screen region until stopped",
	Long: `Select a region of the screen and record it until you stop the recording
from the tray icon, the global hotkey, or with Ctrl+C.`,
	Example: `  # Record an mp4 with desktop audio
  drop video --audio

  # Record from the microphone instead
  drop video --audio --audio-source mic

  # Record an animated gif without the selection border
  drop video --format gif --border=false

  # Only stop from the terminal
  drop video --stop signal`,
	Args: cobra.NoArgs,
	RunE: runVideo,
}

func init() {
	rootCmd.AddCommand(videoCmd)

	videoCmd.Flags().StringVarP(&videoFilename, "filename", "n", "", "output file name without extension (default is random)")
	videoCmd.Flags().String("dir", "", "output directory")
	videoCmd.Flags().Int("delay", 0, "seconds to wait after selection before recording")
	videoCmd.Flags().Bool("transparent", false, "use a transparent selection overlay")
	videoCmd.Flags().String("format", "", "video format (mp4 or gif)")
	videoCmd.Flags().Bool("audio", false, "record audio")
	videoCmd.Flags().String("audio-source", "", "audio source (desktop or mic)")
	videoCmd.Flags().Bool("border", true, "show the recorded region on screen")
	videoCmd.Flags().Bool("mouse", true, "draw the mouse cursor")
	videoCmd.Flags().String("stop", "", "stop gesture (auto, tray, hotkey or signal)")
	videoCmd.Flags().String("hotkey", "", "global stop hotkey, e.g. ctrl+shift+q")
}

func runVideo(cmd *cobra.Command, args []string) error {
	return runCapture(cmd, true, videoFilename, (*session.Orchestrator).CaptureVideo)
}
