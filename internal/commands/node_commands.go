package commands

import (
	"net/http"

	services "github.com/inference-gateway/operator/internal/services"
)

// NodeCommands act on nodes of the last UI snapshot
type NodeCommands struct {
	auto *services.Automation
}

// NewNodeCommands creates the node group
func NewNodeCommands(auto *services.Automation) *NodeCommands {
	return &NodeCommands{auto: auto}
}

func (c *NodeCommands) Manifests() []Manifest {
	return []Manifest{
		{Name: "clickNode", Description: "Click on a node.", ArgNames: []string{"nodeId"}, Handler: c.clickNode},
		{Name: "longClickNode", Description: "Long click on a node.", ArgNames: []string{"nodeId"}, Handler: c.longClickNode},
		{
			Name:        "scrollNode",
			Description: "Scroll a node in a direction (forward, backward).",
			ArgNames:    []string{"nodeId", "direction"},
			Handler:     c.scrollNode,
		},
		{
			Name:        "inputText",
			Description: "Input text on an editable node and submit.",
			ArgNames:    []string{"nodeId", "text"},
			Handler:     c.inputText,
		},
		{
			Name:        "inputTextToFocusedNode",
			Description: "Input text to the currently focused node and submit.",
			ArgNames:    []string{"text"},
			Handler:     c.inputTextToFocused,
		},
		{
			Name:        "copyToClipboard",
			Description: "Copy text to the clipboard.",
			ArgNames:    []string{"text"},
			Handler:     c.copyToClipboard,
		},
		{
			Name:        "injectTextByIME",
			Description: "Type text through the operator input method.",
			ArgNames:    []string{"text"},
			Handler:     c.injectText,
		},
	}
}

func (c *NodeCommands) clickNode(r *http.Request) Response {
	nodeID := Args(r).String("nodeId")
	if nodeID == nil {
		return BadRequest("Invalid node id")
	}
	return Result(c.auto.ClickNode(r.Context(), *nodeID))
}

func (c *NodeCommands) longClickNode(r *http.Request) Response {
	nodeID := Args(r).String("nodeId")
	if nodeID == nil {
		return BadRequest("Invalid node id")
	}
	return Result(c.auto.LongClickNode(r.Context(), *nodeID))
}

func (c *NodeCommands) scrollNode(r *http.Request) Response {
	q := Args(r)
	nodeID, direction := q.String("nodeId"), q.String("direction")
	if nodeID == nil || direction == nil {
		return BadRequest("Invalid node id or invalid direction")
	}
	return Result(c.auto.ScrollNode(r.Context(), *nodeID, *direction))
}

func (c *NodeCommands) inputText(r *http.Request) Response {
	q := Args(r)
	nodeID, text := q.String("nodeId"), q.String("text")
	if nodeID == nil || text == nil {
		return BadRequest("Invalid node id or empty text")
	}
	return Result(c.auto.InputText(r.Context(), *nodeID, *text))
}

func (c *NodeCommands) inputTextToFocused(r *http.Request) Response {
	text := Args(r).String("text")
	if text == nil {
		return BadRequest("Empty text")
	}
	return Result(c.auto.InputTextToFocusedNode(r.Context(), *text))
}

func (c *NodeCommands) copyToClipboard(r *http.Request) Response {
	text := Args(r).String("text")
	if text == nil {
		return BadRequest("Empty text")
	}
	return Result(c.auto.CopyToClipboard(r.Context(), *text))
}

func (c *NodeCommands) injectText(r *http.Request) Response {
	text := Args(r).String("text")
	if text == nil {
		return BadRequest("Empty text")
	}
	return Result(c.auto.InjectTextByIME(r.Context(), *text))
}
