package adb

import (
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	constants "github.com/inference-gateway/operator/internal/constants"
	device "github.com/inference-gateway/operator/internal/device"
)

const dumpFile = "/data/local/tmp/operator_view.xml"

// uiNode mirrors one <node> of a uiautomator dump
type uiNode struct {
	Text          string   `xml:"text,attr"`
	ContentDesc   string   `xml:"content-desc,attr"`
	Clickable     string   `xml:"clickable,attr"`
	LongClickable string   `xml:"long-clickable,attr"`
	Focusable     string   `xml:"focusable,attr"`
	Focused       string   `xml:"focused,attr"`
	Scrollable    string   `xml:"scrollable,attr"`
	Password      string   `xml:"password,attr"`
	Selected      string   `xml:"selected,attr"`
	Class         string   `xml:"class,attr"`
	Bounds        string   `xml:"bounds,attr"`
	Nodes         []uiNode `xml:"node"`
}

type uiHierarchy struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []uiNode `xml:"node"`
}

// node adapts a parsed uiautomator element to device.Node
type node struct {
	raw      *uiNode
	bounds   image.Rectangle
	children []*node
	client   *Client
}

var _ device.Node = (*node)(nil)

func (n *node) Text() string               { return n.raw.Text }
func (n *node) ContentDescription() string { return n.raw.ContentDesc }
func (n *node) Bounds() image.Rectangle    { return n.bounds }

// VisibleToUser treats zero-area elements as hidden; uiautomator omits offscreen ones already
func (n *node) VisibleToUser() bool { return !n.bounds.Empty() }

func (n *node) Clickable() bool     { return n.raw.Clickable == "true" }
func (n *node) LongClickable() bool { return n.raw.LongClickable == "true" }
func (n *node) Focusable() bool     { return n.raw.Focusable == "true" }
func (n *node) Focused() bool       { return n.raw.Focused == "true" }
func (n *node) Scrollable() bool    { return n.raw.Scrollable == "true" }
func (n *node) Password() bool      { return n.raw.Password == "true" }
func (n *node) Selected() bool      { return n.raw.Selected == "true" }

// Editable is derived from the widget class since uiautomator has no editable attribute
func (n *node) Editable() bool {
	return strings.HasSuffix(n.raw.Class, "EditText") || strings.HasSuffix(n.raw.Class, "AutoCompleteTextView")
}

func (n *node) ChildCount() int { return len(n.children) }

func (n *node) Child(i int) device.Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Perform maps accessibility actions onto input events at the node bounds
func (n *node) Perform(ctx context.Context, action device.Action, text string) bool {
	c := n.bounds.Min.Add(n.bounds.Size().Div(2))
	cx, cy := strconv.Itoa(c.X), strconv.Itoa(c.Y)

	var err error
	switch action {
	case device.ActionClick:
		_, err = n.client.Shell(ctx, "input", "tap", cx, cy)
	case device.ActionLongClick:
		ms := strconv.FormatInt(constants.LongClickDuration.Milliseconds(), 10)
		_, err = n.client.Shell(ctx, "input", "swipe", cx, cy, cx, cy, ms)
	case device.ActionScrollForward, device.ActionScrollBackward:
		err = n.scroll(ctx, action == device.ActionScrollForward)
	case device.ActionSetText:
		err = n.setText(ctx, cx, cy, text)
	case device.ActionIMEEnter:
		_, err = n.client.Shell(ctx, "input", "keyevent", "KEYCODE_ENTER")
	default:
		return false
	}
	return err == nil
}

// setText focuses the field, deletes its current contents and types text
func (n *node) setText(ctx context.Context, cx, cy, text string) error {
	if _, err := n.client.Shell(ctx, "input", "tap", cx, cy); err != nil {
		return err
	}
	if count := utf8.RuneCountInString(n.raw.Text); count > 0 {
		keys := []string{"input", "keyevent", "KEYCODE_MOVE_END"}
		for i := 0; i < count; i++ {
			keys = append(keys, "KEYCODE_DEL")
		}
		if _, err := n.client.Shell(ctx, keys...); err != nil {
			return err
		}
	}
	if text == "" {
		return nil
	}
	_, err := n.client.Shell(ctx, "input", "text", escapeInputText(text))
	return err
}

// scroll swipes across the inner 60% of the node, vertically unless it is wider than tall
func (n *node) scroll(ctx context.Context, forward bool) error {
	b := n.bounds
	w, h := b.Dx(), b.Dy()
	x1, y1, x2, y2 := b.Min.X+w/2, b.Min.Y+h*4/5, b.Min.X+w/2, b.Min.Y+h/5
	if w > h {
		x1, y1, x2, y2 = b.Min.X+w*4/5, b.Min.Y+h/2, b.Min.X+w/5, b.Min.Y+h/2
	}
	if !forward {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}
	ms := strconv.FormatInt(constants.ScrollDuration.Milliseconds(), 10)
	_, err := n.client.Shell(ctx, "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2), ms)
	return err
}

// parseBounds parses "[l,t][r,b]"
func parseBounds(s string) (image.Rectangle, error) {
	var l, t, r, b int
	if _, err := fmt.Sscanf(s, "[%d,%d][%d,%d]", &l, &t, &r, &b); err != nil {
		return image.Rectangle{}, fmt.Errorf("invalid bounds %q: %w", s, err)
	}
	return image.Rect(l, t, r, b), nil
}

// parseHierarchy converts a uiautomator dump into a node tree. Multiple top-level
// windows are grouped under a synthetic full-screen root.
func parseHierarchy(raw string, client *Client) (*node, error) {
	start := strings.Index(raw, "<?xml")
	if start == -1 {
		start = strings.Index(raw, "<hierarchy")
	}
	if start == -1 {
		return nil, fmt.Errorf("no hierarchy in dump output")
	}
	raw = raw[start:]
	if end := strings.LastIndex(raw, ">"); end != -1 {
		raw = raw[:end+1]
	}

	var h uiHierarchy
	if err := xml.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("failed to parse UI XML (length: %d): %w", len(raw), err)
	}

	switch len(h.Nodes) {
	case 0:
		return nil, nil
	case 1:
		return convert(&h.Nodes[0], client), nil
	}

	root := &node{raw: &uiNode{Class: "android.view.View"}, client: client}
	for i := range h.Nodes {
		child := convert(&h.Nodes[i], client)
		root.children = append(root.children, child)
		root.bounds = root.bounds.Union(child.bounds)
	}
	return root, nil
}

func convert(raw *uiNode, client *Client) *node {
	bounds, _ := parseBounds(raw.Bounds)
	n := &node{raw: raw, bounds: bounds, client: client}
	for i := range raw.Nodes {
		n.children = append(n.children, convert(&raw.Nodes[i], client))
	}
	return n
}

// dump runs uiautomator, retrying once after killing a stuck instance
func (c *Client) dump(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			_, _ = c.Shell(ctx, "pkill", "uiautomator")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		out, err := c.Shell(ctx, "uiautomator dump "+dumpFile+" >/dev/null && cat "+dumpFile)
		if err == nil && strings.Contains(out, "<hierarchy") {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty dump")
	}
	return "", fmt.Errorf("failed to dump UI: %w", lastErr)
}
