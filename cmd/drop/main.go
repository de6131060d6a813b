package main

import (
	"runtime"

	"github.com/bryanchriswhite/drop/cmd/drop/commands"
)

func init() {
	// The tray event loop has to run on the main OS thread on macOS.
	runtime.LockOSThread()
}

func main() {
	commands.Execute()
}
