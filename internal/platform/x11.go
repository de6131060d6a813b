package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// DefaultDisplay is used when $DISPLAY is unset.
const DefaultDisplay = ":0"

// X11Display returns the X display name to grab from.
func X11Display(getenv func(string) string) string {
	if d := getenv("DISPLAY"); d != "" {
		return d
	}
	return DefaultDisplay
}

// ScreenProbe reports the size of the default screen of an X display.
type ScreenProbe func(display string) (width, height int, err error)

// X11ScreenSize connects to display and reads the root screen size.
func X11ScreenSize(display string) (int, int, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to connect to X server %s: %w", display, err)
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	return int(screen.WidthInPixels), int(screen.HeightInPixels), nil
}

// Contains reports whether the rectangle lies fully on a width x height screen.
func Contains(width, height, x, y, w, h int) bool {
	return x >= 0 && y >= 0 && w > 0 && h > 0 && x+w <= width && y+h <= height
}
