package stop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/drop/internal/platform"
)

// blocking waits for ctx and counts how often it was released.
func blocking(released *atomic.Int32) Func {
	return func(ctx context.Context) error {
		<-ctx.Done()
		released.Add(1)
		return ctx.Err()
	}
}

func TestAnyFirstGestureWins(t *testing.T) {
	var released atomic.Int32
	fired := make(chan struct{})

	c := Any{
		blocking(&released),
		Func(func(context.Context) error {
			<-fired
			return nil
		}),
		blocking(&released),
	}

	errc := make(chan error, 1)
	go func() { errc <- c.Wait(context.Background()) }()

	close(fired)
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Any did not return after a gesture fired")
	}
	assert.Equal(t, int32(2), released.Load())
}

func TestAnyCallingGoroutineGestureWins(t *testing.T) {
	var released atomic.Int32
	c := Any{
		Func(func(context.Context) error { return nil }),
		blocking(&released),
	}

	require.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, int32(1), released.Load())
}

func TestAnyParentCancelled(t *testing.T) {
	var released atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Any{blocking(&released), blocking(&released)}.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(2), released.Load())
}

func TestAnyInterruptPrefersFiredGesture(t *testing.T) {
	var released atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The signal gesture sees the same Ctrl+C that cancelled ctx, but only
	// after the tray has already returned ctx.Err().
	signalled := Func(func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		return nil
	})

	err := Any{signalled, blocking(&released)}.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), released.Load())

	err = Any{blocking(&released), signalled}.Wait(ctx)
	require.NoError(t, err)
}

func TestAnyKeepsFirstErrorWithoutGesture(t *testing.T) {
	trayErr := assert.AnError
	c := Any{
		Func(func(context.Context) error { return trayErr }),
		Func(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	}
	assert.ErrorIs(t, c.Wait(context.Background()), trayErr)
}

func TestTrayHasIcon(t *testing.T) {
	tray := NewTray()
	require.NotEmpty(t, tray.Icon)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), tray.Icon[:8])
}

func TestAnyEmpty(t *testing.T) {
	assert.Error(t, Any{}.Wait(context.Background()))
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "ctrl+shift+q", want: []string{"q", "ctrl", "shift"}},
		{in: "Ctrl + Alt + S", want: []string{"s", "ctrl", "alt"}},
		{in: "super+r", want: []string{"r", "cmd"}},
		{in: "f9", want: []string{"f9"}},
		{in: "ctrl+shift", wantErr: true},
		{in: "ctrl++q", wantErr: true},
		{in: "a+b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHotkey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Auto, m)

	m, err = ParseMode(" Tray ")
	require.NoError(t, err)
	assert.Equal(t, TrayMode, m)

	_, err = ParseMode("popup")
	assert.Error(t, err)
}

func TestNewComposesAutoGestures(t *testing.T) {
	x11 := platform.Platform{OS: "linux", DisplayServer: platform.X11}
	wayland := platform.Platform{OS: "linux", DisplayServer: platform.Wayland}

	c, err := New(Options{Mode: Auto, Hotkey: "ctrl+shift+q", Platform: x11, Desktop: true})
	require.NoError(t, err)
	gestures := c.(Any)
	require.Len(t, gestures, 3)
	assert.IsType(t, &Tray{}, gestures[0])
	assert.IsType(t, &Hotkey{}, gestures[1])
	assert.IsType(t, &Signal{}, gestures[2])

	c, err = New(Options{Mode: Auto, Hotkey: "ctrl+shift+q", Platform: wayland, Desktop: false})
	require.NoError(t, err)
	gestures = c.(Any)
	require.Len(t, gestures, 1)
	assert.IsType(t, &Signal{}, gestures[0])

	c, err = New(Options{Mode: SignalMode})
	require.NoError(t, err)
	assert.IsType(t, &Signal{}, c)

	_, err = New(Options{Mode: HotkeyMode, Hotkey: "ctrl"})
	assert.Error(t, err)
}
