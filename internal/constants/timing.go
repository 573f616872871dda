package constants

import "time"

// GestureTiming contains the stroke durations of synthesized gestures
const (
	ClickDuration     = 50 * time.Millisecond
	LongClickDuration = 1000 * time.Millisecond
	ScrollDuration    = 500 * time.Millisecond

	// Default swipe length used by the socket channel when none is given
	DefaultScrollDistance = 300.0
)

// OperationDeadlines bound how long the facade waits on asynchronous work
const (
	ClickDeadline     = 1 * time.Second
	LongClickDeadline = 2 * time.Second
	ScrollDeadline    = 1 * time.Second
	CaptureDeadline   = 1 * time.Second
)

// CaptureTiming contains screenshot pacing
const (
	// Held after a frame grab before the capture lock is released
	CaptureThrottle = 300 * time.Millisecond

	DefaultJPEGQuality = 50
)

// OverlayTiming contains transient surface timing
const (
	MessageDisplayDuration = 5000 * time.Millisecond

	IndicatorPopIn    = 400 * time.Millisecond
	IndicatorPause    = 100 * time.Millisecond
	IndicatorFadeOut  = 600 * time.Millisecond
	IndicatorScroll   = 600 * time.Millisecond
	SurfaceAnimateOut = 250 * time.Millisecond
)

// ServerTiming contains command server timing
const (
	DefaultRequestTimeout = 15 * time.Second
	PortRetryBackoff      = 30 * time.Millisecond
	ShutdownTimeout       = 10 * time.Second
	ServerReadyTimeout    = 5 * time.Second
	ServerReadyPoll       = 100 * time.Millisecond
)

// SocketTiming contains controller channel timing
const (
	SocketConnectTimeout = 2 * time.Second
	SocketWriteTimeout   = 5 * time.Second
)

// TestSleepDelay is the standard delay in tests for timing-sensitive operations
const TestSleepDelay = 100 * time.Millisecond
