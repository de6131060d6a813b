package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/drop/internal/config"
	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/logger"
)

var (
	cfgFile   string
	configMgr *config.Manager
	rootCmd   = &cobra.Command{
		Use:   "drop",
		Short: "drop - Capture a screen region as an image or video",
		Long: `drop captures a region of the screen you select and writes it to a file.

Features:
  • Screenshots on X11 (slop + import), Wayland (slurp + grim) and macOS
  • Screencasts to mp4 with optional desktop or microphone audio
  • Optimized animated gifs
  • Stop recording from the tray icon, a global hotkey or Ctrl+C

The path of the captured file is printed on stdout.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/drop/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "relay the output of external tools")
	rootCmd.PersistentFlags().String("display-server", "", "display server (x11 or wayland, default is detected)")
}

// setup loads configuration, binds this command's flags over it and
// configures logging.
func setup(cmd *cobra.Command, args []string) error {
	m, err := config.NewManager(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := m.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := m.Get()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = string(logger.DebugLevel)
	}
	logger.Init(level, true)

	configMgr = m
	return nil
}

// Execute runs the root command and exits with the session's exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "Cancelled drop, exiting")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(errors.ExitCode(err))
	}
}
