package commands

import (
	"context"
	"net/http"

	services "github.com/inference-gateway/operator/internal/services"
)

// Recorder is told when a controller pulls a screenshot or tree
type Recorder interface {
	MarkScreenshot(ctx context.Context)
	MarkXML(ctx context.Context)
}

// CaptureCommands serves screenshot, tree and window metadata requests
type CaptureCommands struct {
	auto     *services.Automation
	recorder Recorder
}

// NewCaptureCommands creates the capture group
func NewCaptureCommands(auto *services.Automation, recorder Recorder) *CaptureCommands {
	return &CaptureCommands{auto: auto, recorder: recorder}
}

func (c *CaptureCommands) Manifests() []Manifest {
	return []Manifest{
		{
			Name:        "captureScreenshotImage",
			Description: "Capture a screenshot as base64 encoded JPEG.",
			Response:    PayloadCaptureImage,
			OperationID: "captureScreenshotImage",
			Handler:     c.captureImage,
		},
		{
			Name:        "captureScreenshotXml",
			Description: "Capture a screenshot UI as XML.",
			Response:    PayloadCaptureXML,
			OperationID: "captureScreenshotXml",
			Handler:     c.captureXML,
		},
		{
			Name:        "getMetadata",
			Description: "Get the package name and activity name.",
			Response:    PayloadMetadata,
			OperationID: "getMetadata",
			Handler: NoArgs(func(ctx context.Context) Response {
				return Result(c.auto.GetMetadata(ctx))
			}),
		},
	}
}

// record defaults to true; only the literal "true" keeps it on when given
func (c *CaptureCommands) captureImage(r *http.Request) Response {
	res := c.auto.CaptureScreenshotImage(r.Context())
	if c.recorder != nil && Args(r).Bool("record", true) {
		c.recorder.MarkScreenshot(r.Context())
	}
	return Result(res)
}

func (c *CaptureCommands) captureXML(r *http.Request) Response {
	res := c.auto.CaptureScreenshotXML(r.Context())
	if c.recorder != nil && Args(r).Bool("record", true) {
		c.recorder.MarkXML(r.Context())
	}
	return Result(res)
}
