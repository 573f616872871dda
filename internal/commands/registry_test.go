package commands

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	devicetest "github.com/inference-gateway/operator/internal/device/devicetest"
	domain "github.com/inference-gateway/operator/internal/domain"
	overlay "github.com/inference-gateway/operator/internal/overlay"
	services "github.com/inference-gateway/operator/internal/services"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

type staticGroup []Manifest

func (g staticGroup) Manifests() []Manifest { return g }

type countingRecorder struct {
	mu          sync.Mutex
	screenshots int
	xml         int
}

func (c *countingRecorder) MarkScreenshot(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.screenshots++
}

func (c *countingRecorder) MarkXML(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.xml++
}

func newAutomation(t *testing.T) (*services.Automation, *devicetest.Device) {
	t.Helper()
	dev := devicetest.New()
	dev.RootNode = &devicetest.Node{
		Rect:     image.Rect(0, 0, 1080, 1920),
		Children: []*devicetest.Node{{TextValue: "Plain", Rect: image.Rect(0, 0, 10, 10)}},
	}
	coord := overlay.New(overlay.NewLogSurface(overlay.Timing{}), overlay.Options{MessageDuration: time.Minute})
	t.Cleanup(func() { _ = coord.Close() })

	auto := services.NewAutomation(nil)
	auto.Attach(&services.Session{
		Device:   dev,
		Capture:  services.NewCapture(dev, services.CaptureOptions{}),
		Executor: services.NewExecutor(dev),
		Overlay:  coord,
	})
	return auto, dev
}

func serve(t *testing.T, reg *Registry, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	route, ok := reg.Lookup(req.URL.Path)
	require.True(t, ok, "no route for %s", req.URL.Path)

	rec := httptest.NewRecorder()
	route.Handler(req).Write(rec)
	return rec
}

func TestBuildRejectsDuplicatePaths(t *testing.T) {
	noop := func(*http.Request) Response { return Text(http.StatusOK, "") }
	_, err := Build(
		staticGroup{{Name: "goHome", Handler: noop}},
		staticGroup{{Name: "goBack", Handler: noop}, {Name: "goHome", Handler: noop}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateRoute)
	assert.Contains(t, err.Error(), "/goHome")
}

func TestBuildRejectsBuiltinPaths(t *testing.T) {
	noop := func(*http.Request) Response { return Text(http.StatusOK, "") }
	for _, name := range []string{"health", "openapi.json", "static/app.js"} {
		t.Run(name, func(t *testing.T) {
			_, err := Build(staticGroup{{Name: "goHome", Handler: noop}, {Name: name, Handler: noop}})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDuplicateRoute)
			assert.Contains(t, err.Error(), "/"+name)
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	auto, _ := newAutomation(t)
	reg, err := Build(Default(auto, &countingRecorder{})...)
	require.NoError(t, err)

	assert.Len(t, reg.Routes(), 21)
	route, ok := reg.Lookup("/scrollCoordinate")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y", "direction", "distance"}, route.ArgNames)
	assert.Equal(t, "scrollCoordinate", route.OperationID)

	for _, info := range reg.Commands() {
		assert.NotNil(t, info.ArgNames, info.Name)
	}
	assert.Equal(t, "captureScreenshotImage", reg.Commands()[0].Name)
}

func TestBadRequests(t *testing.T) {
	auto, _ := newAutomation(t)
	reg, err := Build(Default(auto, &countingRecorder{})...)
	require.NoError(t, err)

	tests := []struct {
		target string
		body   string
	}{
		{"/clickNode", "Invalid node id"},
		{"/longClickNode", "Invalid node id"},
		{"/scrollNode?nodeId=1", "Invalid node id or invalid direction"},
		{"/inputText?nodeId=1", "Invalid node id or empty text"},
		{"/inputTextToFocusedNode", "Empty text"},
		{"/copyToClipboard", "Empty text"},
		{"/injectTextByIME", "Empty text"},
		{"/clickCoordinate?x=1", "Invalid coordinates"},
		{"/longClickCoordinate?x=abc&y=2", "Invalid coordinates"},
		{"/scrollCoordinate?x=1&y=2&direction=up", "Invalid parameters"},
		{"/launchApplication", "Missing package name"},
		{"/requireUserConfirmation", "Missing prompt"},
		{"/requireUserChoice?prompt=pick", "Missing prompt or options"},
		{"/pushMessageToBot", "Missing message"},
		{"/showMessage?title=hi", "Missing title or content"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(t, reg, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestFailureTravelsInEnvelope(t *testing.T) {
	auto, _ := newAutomation(t)
	reg, err := Build(Default(auto, &countingRecorder{})...)
	require.NoError(t, err)

	rec := serve(t, reg, "/clickNode?nodeId=1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var env domain.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "Error during Click Node '1': Node is not clickable", env.Message)
	assert.NotContains(t, rec.Body.String(), `"data"`)
}

func TestCaptureRecordFlag(t *testing.T) {
	auto, _ := newAutomation(t)
	recorder := &countingRecorder{}
	reg, err := Build(Default(auto, recorder)...)
	require.NoError(t, err)

	rec := serve(t, reg, "/captureScreenshotXml")
	assert.Contains(t, rec.Body.String(), `"xml"`)
	serve(t, reg, "/captureScreenshotXml?record=false")
	serve(t, reg, "/captureScreenshotXml?record=TRUE")

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, 2, recorder.xml)
	assert.Equal(t, 0, recorder.screenshots)
}

func TestRequestHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?text=&x=12.5&bad=NaN&opts=a%3B+b+%3B&flag=yes", nil)
	q := Args(req)

	require.NotNil(t, q.String("text"))
	assert.Equal(t, "", *q.String("text"))
	assert.Nil(t, q.String("missing"))

	require.NotNil(t, q.Float("x"))
	assert.Equal(t, 12.5, *q.Float("x"))
	assert.Nil(t, q.Float("bad"))

	assert.Equal(t, []string{"a", "b", ""}, q.SemicolonList("opts"))
	assert.Nil(t, q.SemicolonList("missing"))

	assert.False(t, q.Bool("flag", true))
	assert.True(t, q.Bool("missing", true))
}
