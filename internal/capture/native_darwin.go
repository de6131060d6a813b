//go:build darwin

package capture

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -Wno-deprecated-declarations
#cgo LDFLAGS: -framework AVFoundation -framework CoreMedia -framework CoreGraphics -framework Foundation
#include <stdlib.h>
#import <AVFoundation/AVFoundation.h>
#import <CoreGraphics/CoreGraphics.h>

@interface DropRecordingDelegate : NSObject <AVCaptureFileOutputRecordingDelegate>
@property (nonatomic, strong) dispatch_semaphore_t finished;
@property (nonatomic, strong) NSError *error;
@end

@implementation DropRecordingDelegate
- (void)captureOutput:(AVCaptureFileOutput *)output
    didFinishRecordingToOutputFileAtURL:(NSURL *)url
    fromConnections:(NSArray *)connections
    error:(NSError *)error {
	self.error = error;
	dispatch_semaphore_signal(self.finished);
}
@end

typedef struct {
	void *session;
	void *output;
	void *delegate;
} drop_capture;

static int drop_capture_start(const char *path, int x, int y, int w, int h, int mouse, int audio, drop_capture *out) {
	@autoreleasepool {
		AVCaptureSession *session = [[AVCaptureSession alloc] init];

		AVCaptureScreenInput *input = [[AVCaptureScreenInput alloc] initWithDisplayID:CGMainDisplayID()];
		if (input == nil) {
			return 1;
		}
		input.capturesCursor = mouse ? YES : NO;
		if (w > 0 && h > 0) {
			input.cropRect = CGRectMake(x, y, w, h);
		}
		if (![session canAddInput:input]) {
			return 2;
		}
		[session addInput:input];

		if (audio) {
			AVCaptureDevice *device = [AVCaptureDevice defaultDeviceWithMediaType:AVMediaTypeAudio];
			if (device != nil) {
				NSError *err = nil;
				AVCaptureDeviceInput *audioInput = [AVCaptureDeviceInput deviceInputWithDevice:device error:&err];
				if (audioInput != nil && [session canAddInput:audioInput]) {
					[session addInput:audioInput];
				}
			}
		}

		AVCaptureMovieFileOutput *output = [[AVCaptureMovieFileOutput alloc] init];
		if (![session canAddOutput:output]) {
			return 3;
		}
		[session addOutput:output];
		[session startRunning];

		DropRecordingDelegate *delegate = [[DropRecordingDelegate alloc] init];
		delegate.finished = dispatch_semaphore_create(0);
		NSURL *url = [NSURL fileURLWithPath:[NSString stringWithUTF8String:path]];
		[output startRecordingToOutputFileURL:url recordingDelegate:delegate];

		out->session = (__bridge_retained void *)session;
		out->output = (__bridge_retained void *)output;
		out->delegate = (__bridge_retained void *)delegate;
		return 0;
	}
}

static int drop_capture_stop(drop_capture *c) {
	@autoreleasepool {
		AVCaptureSession *session = (__bridge_transfer AVCaptureSession *)c->session;
		AVCaptureMovieFileOutput *output = (__bridge_transfer AVCaptureMovieFileOutput *)c->output;
		DropRecordingDelegate *delegate = (__bridge_transfer DropRecordingDelegate *)c->delegate;
		c->session = NULL;
		c->output = NULL;
		c->delegate = NULL;

		[output stopRecording];
		dispatch_semaphore_wait(delegate.finished, DISPATCH_TIME_FOREVER);
		[session stopRunning];
		return delegate.error == nil ? 0 : 1;
	}
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/bryanchriswhite/drop/internal/selector"
)

func init() {
	nativeFactory = newAVFoundationSession
}

// avFoundationSession records the main display with AVCaptureScreenInput.
type avFoundationSession struct {
	region selector.Region
	req    Request

	mu      sync.Mutex
	c       C.drop_capture
	running bool
}

func newAVFoundationSession(region selector.Region, req Request) (NativeSession, error) {
	return &avFoundationSession{region: region, req: req}, nil
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (s *avFoundationSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	path := C.CString(s.req.OutputPath)
	defer C.free(unsafe.Pointer(path))

	rc := C.drop_capture_start(path,
		C.int(s.region.X), C.int(s.region.Y), C.int(s.region.Width), C.int(s.region.Height),
		boolInt(s.req.Mouse), boolInt(s.req.Audio), &s.c)
	if rc != 0 {
		return fmt.Errorf("AVFoundation capture session failed to start (code %d); check Screen Recording permission", int(rc))
	}
	s.running = true
	return nil
}

func (s *avFoundationSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false

	if C.drop_capture_stop(&s.c) != 0 {
		return fmt.Errorf("AVFoundation recording finished with an error")
	}
	return nil
}
