package commands

import (
	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/drop/internal/session"
)

var screenshotFilename string

var screenshotCmd = &cobra.Command{
	Use:     "screenshot",
	Aliases: []string{"shot", "s"},
	Short:   "Capture a still image of a screen region",
	Long:    `Select a region of the screen and save it as a PNG image.`,
	Example: `  # Select a region and save it with a random name
  drop screenshot

  # Wait three seconds after selecting before capturing
  drop screenshot --delay 3

  # Choose the file name (without extension)
  drop screenshot --filename diagram`,
	Args: cobra.NoArgs,
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)

	screenshotCmd.Flags().StringVarP(&screenshotFilename, "filename", "n", "", "output file name without extension (default is random)")
	screenshotCmd.Flags().String("dir", "", "output directory")
	screenshotCmd.Flags().Int("delay", 0, "seconds to wait after selection before capturing")
	screenshotCmd.Flags().Bool("transparent", false, "use a transparent selection overlay")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	return runCapture(cmd, false, screenshotFilename, (*session.Orchestrator).CaptureStill)
}
