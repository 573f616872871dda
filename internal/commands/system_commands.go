package commands

import (
	"context"
	"net/http"

	services "github.com/inference-gateway/operator/internal/services"
)

// SystemCommands navigate and manage applications
type SystemCommands struct {
	auto *services.Automation
}

// NewSystemCommands creates the system group
func NewSystemCommands(auto *services.Automation) *SystemCommands {
	return &SystemCommands{auto: auto}
}

func (c *SystemCommands) Manifests() []Manifest {
	return []Manifest{
		{
			Name:        "launchApplication",
			Description: "Launch an application by package name.",
			ArgNames:    []string{"packageName"},
			Handler:     c.launch,
		},
		{
			Name:        "listInstalledApplications",
			Description: "List all installed applications.",
			Response:    PayloadInstalledApplications,
			Handler: NoArgs(func(ctx context.Context) Response {
				return Result(c.auto.ListInstalledApplications(ctx))
			}),
		},
		{
			Name:        "goHome",
			Description: "Go to the home screen.",
			Handler: NoArgs(func(ctx context.Context) Response {
				return Result(c.auto.GoHome(ctx))
			}),
		},
		{
			Name:        "goBack",
			Description: "Go back to the previous screen.",
			Handler: NoArgs(func(ctx context.Context) Response {
				return Result(c.auto.GoBack(ctx))
			}),
		},
	}
}

func (c *SystemCommands) launch(r *http.Request) Response {
	packageName := Args(r).String("packageName")
	if packageName == nil {
		return BadRequest("Missing package name")
	}
	return Result(c.auto.LaunchApplication(r.Context(), *packageName))
}
