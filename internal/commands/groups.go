package commands

import (
	services "github.com/inference-gateway/operator/internal/services"
)

// Default returns every built-in command group, in listing order
func Default(auto *services.Automation, recorder Recorder) []Group {
	return []Group{
		NewCaptureCommands(auto, recorder),
		NewNodeCommands(auto),
		NewCoordinateCommands(auto),
		NewSystemCommands(auto),
		NewMessageCommands(auto),
	}
}
