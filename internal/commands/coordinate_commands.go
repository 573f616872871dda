package commands

import (
	"net/http"

	services "github.com/inference-gateway/operator/internal/services"
)

// CoordinateCommands synthesize gestures at screen coordinates
type CoordinateCommands struct {
	auto *services.Automation
}

// NewCoordinateCommands creates the coordinate group
func NewCoordinateCommands(auto *services.Automation) *CoordinateCommands {
	return &CoordinateCommands{auto: auto}
}

func (c *CoordinateCommands) Manifests() []Manifest {
	return []Manifest{
		{Name: "clickCoordinate", Description: "Click on a coordinate.", ArgNames: []string{"x", "y"}, Handler: c.click},
		{Name: "longClickCoordinate", Description: "Long click on a coordinate.", ArgNames: []string{"x", "y"}, Handler: c.longClick},
		{
			Name:        "scrollCoordinate",
			Description: "Scroll on a coordinate in a direction (up, down, left, right).",
			ArgNames:    []string{"x", "y", "direction", "distance"},
			Handler:     c.scroll,
		},
	}
}

func (c *CoordinateCommands) click(r *http.Request) Response {
	q := Args(r)
	x, y := q.Float("x"), q.Float("y")
	if x == nil || y == nil {
		return BadRequest("Invalid coordinates")
	}
	return Result(c.auto.ClickCoordinate(r.Context(), *x, *y))
}

func (c *CoordinateCommands) longClick(r *http.Request) Response {
	q := Args(r)
	x, y := q.Float("x"), q.Float("y")
	if x == nil || y == nil {
		return BadRequest("Invalid coordinates")
	}
	return Result(c.auto.LongClickCoordinate(r.Context(), *x, *y))
}

func (c *CoordinateCommands) scroll(r *http.Request) Response {
	q := Args(r)
	x, y, direction, distance := q.Float("x"), q.Float("y"), q.String("direction"), q.Float("distance")
	if x == nil || y == nil || direction == nil || distance == nil {
		return BadRequest("Invalid parameters")
	}
	return Result(c.auto.ScrollCoordinate(r.Context(), *x, *y, *direction, *distance))
}
