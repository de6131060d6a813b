package capture

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/drop/internal/errors"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/proc"
	"github.com/bryanchriswhite/drop/internal/proc/proctest"
	"github.com/bryanchriswhite/drop/internal/selector"
)

var (
	x11     = platform.Platform{OS: "linux", DisplayServer: platform.X11}
	wayland = platform.Platform{OS: "linux", DisplayServer: platform.Wayland}
	darwin  = platform.Platform{OS: "darwin", DisplayServer: platform.Quartz}
)

func slopRegion(x, y, w, h int) selector.Region {
	r := selector.Region{X: x, Y: y, Width: w, Height: h, ID: "1"}
	r.Geometry = r.String()
	return r
}

type fakeTranscoder struct {
	transcoded []string
	discarded  []string
	err        error
}

func (f *fakeTranscoder) Transcode(intermediate, output, scratchRoot string) error {
	f.transcoded = append(f.transcoded, intermediate+"->"+output)
	return f.err
}

func (f *fakeTranscoder) Discard(intermediate string) error {
	f.discarded = append(f.discarded, intermediate)
	return nil
}

type fakeSession struct {
	starts, stops int
	stopErr       error
}

func (s *fakeSession) Start() error { s.starts++; return nil }
func (s *fakeSession) Stop() error  { s.stops++; return s.stopErr }

func TestResolve(t *testing.T) {
	tests := []struct {
		platform platform.Platform
		video    bool
		format   string
		want     Kind
	}{
		{x11, false, "png", Still},
		{wayland, false, "png", Still},
		{darwin, false, "png", Still},
		{x11, true, "mp4", X11Video},
		{x11, true, "GIF", X11Gif},
		{wayland, true, "mp4", WaylandVideo},
		{wayland, true, "gif", WaylandGif},
		{darwin, true, "mov", NativeVideo},
	}

	for _, tt := range tests {
		t.Run(tt.platform.String()+"/"+tt.format, func(t *testing.T) {
			got, err := Resolve(tt.platform, tt.video, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Resolve(darwin, true, "gif")
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestIntermediatePath(t *testing.T) {
	assert.Equal(t, "/tmp/drop/abc.pam", IntermediatePath("/tmp/drop/abc.gif"))
	assert.Equal(t, "/tmp/drop/gif.dir/abc.pam", IntermediatePath("/tmp/drop/gif.dir/abc.gif"))
}

func TestFFmpegVideoRoundsToEvenDimensions(t *testing.T) {
	args, err := ffmpegVideoArgs(slopRegion(10, 20, 101, 55), Request{OutputPath: "out.mp4"}, ":0")
	require.NoError(t, err)

	assert.Contains(t, args, "scale=100:54")
	// The grab itself keeps the measured size.
	assert.Contains(t, args, "101x55")
	assert.Contains(t, args, ":0.0+10,20")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestEvenDimensions(t *testing.T) {
	w, h := EvenDimensions(101, 55)
	assert.Equal(t, 100, w)
	assert.Equal(t, 54, h)

	w, h = EvenDimensions(1920, 1080)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestTooSmallRegionIsRejected(t *testing.T) {
	_, err := ffmpegVideoArgs(slopRegion(0, 0, 1, 40), Request{}, ":0")
	assert.Error(t, err)

	_, err = wfVideoArgs(slopRegion(0, 0, 40, 1), Request{})
	assert.Error(t, err)
}

func TestGrabInput(t *testing.T) {
	assert.Equal(t, ":0.0+1,2", grabInput(":0", 1, 2))
	assert.Equal(t, ":1.0+1,2", grabInput(":1.0", 1, 2))
	assert.Equal(t, "localhost:10.0+0,0", grabInput("localhost:10", 0, 0))
}

func TestAudioDisabledHasNoAudioInput(t *testing.T) {
	req := Request{OutputPath: "out.mp4", Audio: false, AudioSource: AudioMic}
	region := slopRegion(0, 0, 100, 100)

	video, err := ffmpegVideoArgs(region, req, ":0")
	require.NoError(t, err)
	assert.NotContains(t, video, "alsa")
	assert.NotContains(t, video, "hw:0")
	assert.NotContains(t, video, "pulse")
	assert.Contains(t, video, "-an")

	gif := ffmpegGifArgs(region, req, ":0", "out.pam")
	assert.NotContains(t, gif, "alsa")

	wf, err := wfVideoArgs(region, req)
	require.NoError(t, err)
	for _, a := range wf {
		assert.NotContains(t, a, "--audio")
	}
}

func TestAudioSourceChangesInput(t *testing.T) {
	region := slopRegion(0, 0, 100, 100)
	desktop := Request{OutputPath: "out.mp4", Audio: true, AudioSource: AudioDesktop}
	mic := Request{OutputPath: "out.mp4", Audio: true, AudioSource: AudioMic}

	desktopArgs, err := ffmpegVideoArgs(region, desktop, ":0")
	require.NoError(t, err)
	micArgs, err := ffmpegVideoArgs(region, mic, ":0")
	require.NoError(t, err)

	assert.Contains(t, desktopArgs, "pulse")
	assert.Contains(t, micArgs, "hw:0")
	assert.NotEqual(t, desktopArgs, micArgs)
	assert.NotContains(t, desktopArgs, "-an")

	assert.Equal(t, []string{"--audio=@DEFAULT_MONITOR@"}, wfAudioArgs(desktop))
	assert.Equal(t, []string{"--audio=@DEFAULT_SOURCE@"}, wfAudioArgs(mic))
}

func TestBorderAndMouseFlags(t *testing.T) {
	args := x11GrabArgs(slopRegion(0, 0, 10, 10), Request{Border: true, Mouse: false}, ":0")
	i := slices.Index(args, "-show_region")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "1", args[i+1])
	j := slices.Index(args, "-draw_mouse")
	require.GreaterOrEqual(t, j, 0)
	assert.Equal(t, "0", args[j+1])
}

func TestImportArgs(t *testing.T) {
	r := &proctest.Runner{}
	err := (&Import{Runner: r}).Capture(slopRegion(100, 50, 200, 300), Request{OutputPath: "/tmp/x.png"})
	require.NoError(t, err)

	specs := r.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, "import", specs[0].Program)
	assert.Equal(t, []string{"-window", "root", "-crop", "200x300+100+50", "/tmp/x.png"}, specs[0].Args)
	assert.Equal(t, int32(1), r.Handles()[0].Waits.Load())
}

func TestStillNonZeroExit(t *testing.T) {
	r := &proctest.Runner{ExitCodes: map[string]int{"grim": 1}}
	err := (&Grim{Runner: r}).Capture(selector.Region{Geometry: "0,0 10x10"}, Request{OutputPath: "x.png"})

	var execErr *errors.ToolExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "grim", execErr.Tool)
	assert.Contains(t, err.Error(), "failed to take screenshot")
}

func TestScreencaptureWithoutFileIsCancelled(t *testing.T) {
	out := filepath.Join(t.TempDir(), "shot.png")

	r := &proctest.Runner{}
	err := (&Screencapture{Runner: r}).Capture(selector.Region{}, Request{OutputPath: out})
	assert.ErrorIs(t, err, errors.ErrSelectionCancelled)

	r = &proctest.Runner{OnStart: func(proc.Spec) {
		require.NoError(t, os.WriteFile(out, []byte("png"), 0o644))
	}}
	err = (&Screencapture{Runner: r}).Capture(selector.Region{}, Request{OutputPath: out})
	assert.NoError(t, err)
	assert.Equal(t, []string{"-i", "-x", out}, r.Specs()[0].Args)
}

func TestScreencaptureTimesItself(t *testing.T) {
	assert.True(t, DelaysItself(&Screencapture{}))
	assert.False(t, DelaysItself(&Import{}))
	assert.False(t, DelaysItself(&Grim{}))

	assert.Equal(t, []string{"-i", "-x", "-T", "5", "out.png"},
		screencaptureArgs(Request{OutputPath: "out.png", Delay: 5}))
}

func TestRecordingStopTerminatesThenWaitsOnce(t *testing.T) {
	r := &proctest.Runner{ExitCodes: map[string]int{"ffmpeg": 255}}
	rec, err := (&FFmpeg{Runner: r}).Start(slopRegion(0, 0, 100, 100), Request{OutputPath: "out.mp4"})
	require.NoError(t, err)

	h := r.Handles()[0]
	assert.Equal(t, int32(0), h.Terminates.Load())

	require.NoError(t, rec.Stop())
	require.NoError(t, rec.Stop())
	require.NoError(t, rec.Finalize())
	assert.Equal(t, int32(1), h.Terminates.Load())
	assert.Equal(t, int32(1), h.Waits.Load())
}

func TestRecordingStopWaitsWhenSignalFails(t *testing.T) {
	r := &proctest.Runner{TerminateErr: errors.NewSignalError("FFMPEG", 1, os.ErrProcessDone)}
	rec, err := (&FFmpeg{Runner: r}).Start(slopRegion(0, 0, 100, 100), Request{OutputPath: "out.mp4"})
	require.NoError(t, err)

	assert.NoError(t, rec.Stop())
	assert.Equal(t, int32(1), r.Handles()[0].Waits.Load())
}

func TestGifRecordingTranscodesOnStop(t *testing.T) {
	tc := &fakeTranscoder{}
	r := &proctest.Runner{}
	rec, err := (&FFmpeg{Runner: r, Gif: true, Transcoder: tc}).Start(
		slopRegion(0, 0, 101, 55), Request{OutputPath: "/tmp/a.gif", ScratchRoot: "/tmp"})
	require.NoError(t, err)

	args := r.Specs()[0].Args
	assert.Equal(t, "/tmp/a.pam", args[len(args)-1])
	assert.Contains(t, args, "pam")
	assert.Contains(t, args, "101x55")

	require.NoError(t, rec.Stop())
	assert.Empty(t, tc.transcoded)
	require.NoError(t, rec.Finalize())
	require.NoError(t, rec.Finalize())
	assert.Equal(t, []string{"/tmp/a.pam->/tmp/a.gif"}, tc.transcoded)
	assert.Empty(t, tc.discarded)
}

func TestWaitFailureIsFatalAndDiscardsFrames(t *testing.T) {
	tc := &fakeTranscoder{}
	r := &proctest.Runner{WaitErr: os.ErrClosed}
	rec, err := (&WFRecorder{Runner: r, Gif: true, Transcoder: tc}).Start(
		selector.Region{Width: 10, Height: 10, Geometry: "0,0 10x10"}, Request{OutputPath: "/tmp/b.gif"})
	require.NoError(t, err)

	err = rec.Stop()
	var execErr *errors.ToolExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Contains(t, err.Error(), "failed to record screencast")

	require.NoError(t, rec.Finalize())
	assert.Empty(t, tc.transcoded)
	assert.Equal(t, []string{"/tmp/b.pam"}, tc.discarded)
}

func TestWFRecorderVideoArgs(t *testing.T) {
	r := &proctest.Runner{}
	region := selector.Region{X: 5, Y: 6, Width: 101, Height: 55, Geometry: "5,6 101x55", ID: "wayland"}
	_, err := (&WFRecorder{Runner: r}).Start(region, Request{OutputPath: "o.mp4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-g", "5,6 100x54", "--file", "o.mp4"}, r.Specs()[0].Args)
}

func TestStartSpawnFailure(t *testing.T) {
	r := &proctest.Runner{StartErr: map[string]error{"ffmpeg": errors.NewToolSpawnError("ffmpeg", os.ErrNotExist)}}
	_, err := (&FFmpeg{Runner: r}).Start(slopRegion(0, 0, 10, 10), Request{})
	var spawnErr *errors.ToolSpawnError
	assert.True(t, errors.As(err, &spawnErr))
}

func TestBoundsProbeIsConsulted(t *testing.T) {
	var probed string
	probe := func(display string) (int, int, error) {
		probed = display
		return 1920, 1080, nil
	}
	r := &proctest.Runner{}
	_, err := (&FFmpeg{Runner: r, Probe: probe}).Start(slopRegion(1900, 0, 100, 100), Request{Display: ":1"})
	require.NoError(t, err)
	assert.Equal(t, ":1", probed)
}

func TestNativeRecording(t *testing.T) {
	s := &fakeSession{}
	router := NewRouter(darwin, Backends{
		Runner: &proctest.Runner{},
		Native: func(selector.Region, Request) (NativeSession, error) { return s, nil },
	})

	recorder, err := router.Recorder(NativeVideo)
	require.NoError(t, err)
	rec, err := recorder.Start(selector.Region{}, Request{OutputPath: "o.mov"})
	require.NoError(t, err)
	require.NoError(t, rec.Stop())
	require.NoError(t, rec.Stop())
	require.NoError(t, rec.Finalize())
	assert.Equal(t, 1, s.starts)
	assert.Equal(t, 1, s.stops)
}

func TestNativeUnsupportedOffDarwin(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("native capture is available on darwin")
	}
	_, err := NewRouter(darwin, Backends{Runner: &proctest.Runner{}}).Recorder(NativeVideo)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestRouterPicksTools(t *testing.T) {
	r := &proctest.Runner{}
	tc := &fakeTranscoder{}

	assert.IsType(t, &Import{}, NewRouter(x11, Backends{Runner: r}).Shooter())
	assert.IsType(t, &Grim{}, NewRouter(wayland, Backends{Runner: r}).Shooter())
	assert.IsType(t, &Screencapture{}, NewRouter(darwin, Backends{Runner: r}).Shooter())

	rec, err := NewRouter(x11, Backends{Runner: r, Transcoder: tc}).Recorder(X11Gif)
	require.NoError(t, err)
	assert.True(t, rec.(*FFmpeg).Gif)

	rec, err = NewRouter(wayland, Backends{Runner: r}).Recorder(WaylandVideo)
	require.NoError(t, err)
	assert.IsType(t, &WFRecorder{}, rec)

	_, err = NewRouter(x11, Backends{Runner: r}).Recorder(Still)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"": "mp4", "MP4": "mp4", ".gif": "gif", " mkv ": "mkv", "mov": "mov"} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"webm", "png", "avi"} {
		_, err := ParseFormat(in)
		assert.Error(t, err, in)
	}
}
