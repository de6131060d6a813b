package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// logind D-Bus constants
const (
	logindService  = "org.freedesktop.login1"
	logindSelfPath = "/org/freedesktop/login1/session/auto"
	logindTypeProp = "org.freedesktop.login1.Session.Type"
)

// LogindSessionType asks systemd-logind for the type of the caller's session
// ("x11", "wayland", "tty", ...).
func LogindSessionType() (string, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return "", fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(logindService, dbus.ObjectPath(logindSelfPath))
	v, err := obj.GetProperty(logindTypeProp)
	if err != nil {
		return "", fmt.Errorf("failed to read session type: %w", err)
	}

	st, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected session type %v", v.Value())
	}
	return st, nil
}
