package socket

import (
	"context"
	"encoding/json"
	"fmt"

	constants "github.com/inference-gateway/operator/internal/constants"
	domain "github.com/inference-gateway/operator/internal/domain"
)

// eventHandler runs one inbound event and returns the ack payload
type eventHandler func(ctx context.Context, data json.RawMessage) any

type coordinateArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type scrollArgs struct {
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Direction string   `json:"direction"`
	Distance  *float64 `json:"distance"`
}

type textArgs struct {
	Text string `json:"text"`
}

type launchArgs struct {
	PackageName string `json:"package_name"`
}

type promptArgs struct {
	Prompt  *string  `json:"prompt"`
	Options []string `json:"options"`
}

type messageArgs struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type botArgs struct {
	Message         *string  `json:"message"`
	SuggestionTitle *string  `json:"suggestion_title"`
	Suggestions     []string `json:"suggestions"`
}

type toggleArgs struct {
	Enabled  *bool `json:"enabled"`
	Finished *bool `json:"finished"`
}

// decode fills v from data; absent or null data leaves v at its zero value
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.Errorf(domain.ErrBadRequest, "Invalid event data: %v", err)
	}
	return nil
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// typed adapts a handler taking decoded arguments
func typed[A any](fn func(ctx context.Context, args A) any) eventHandler {
	return func(ctx context.Context, data json.RawMessage) any {
		var args A
		if err := decode(data, &args); err != nil {
			return domain.Failed[domain.Empty](err.Error()).Envelope()
		}
		return fn(ctx, args)
	}
}

func (c *Channel) registerEvents() {
	auto := c.auto

	c.handlers = map[string]eventHandler{
		"request_user_input": func(context.Context, json.RawMessage) any {
			return domain.Succeeded("User input requested successfully.", c.opts.UserInput).Envelope()
		},
		"get_internal_state": func(context.Context, json.RawMessage) any {
			return c.state.Snapshot()
		},
		"set_companion_mode": typed(func(_ context.Context, a toggleArgs) any {
			enabled := a.Enabled != nil && *a.Enabled
			c.state.SetCompanionMode(enabled)
			return domain.Succeeded(fmt.Sprintf("Companion mode set to %t", enabled), domain.Empty{}).Envelope()
		}),
		"set_finished_browsing": typed(func(_ context.Context, a toggleArgs) any {
			finished := a.Finished != nil && *a.Finished
			c.state.SetFinishedBrowsing(finished)
			return domain.Succeeded(fmt.Sprintf("Finished browsing set to %t", finished), domain.Empty{}).Envelope()
		}),

		"capture_screenshot_image": func(ctx context.Context, _ json.RawMessage) any {
			return auto.CaptureScreenshotImage(ctx).Envelope()
		},
		"capture_screenshot_xml": func(ctx context.Context, _ json.RawMessage) any {
			return auto.CaptureScreenshotXML(ctx).Envelope()
		},
		"click_coordinate": typed(func(ctx context.Context, a coordinateArgs) any {
			return auto.ClickCoordinate(ctx, a.X, a.Y).Envelope()
		}),
		"long_click_coordinate": typed(func(ctx context.Context, a coordinateArgs) any {
			return auto.LongClickCoordinate(ctx, a.X, a.Y).Envelope()
		}),
		"scroll_coordinate": typed(func(ctx context.Context, a scrollArgs) any {
			distance := constants.DefaultScrollDistance
			if a.Distance != nil {
				distance = *a.Distance
			}
			return auto.ScrollCoordinate(ctx, a.X, a.Y, a.Direction, distance).Envelope()
		}),
		"input_text": typed(func(ctx context.Context, a textArgs) any {
			return auto.InputTextToFocusedNode(ctx, a.Text).Envelope()
		}),
		"launch_application": typed(func(ctx context.Context, a launchArgs) any {
			return auto.LaunchApplication(ctx, a.PackageName).Envelope()
		}),
		"list_installed_applications": func(ctx context.Context, _ json.RawMessage) any {
			return auto.ListInstalledApplications(ctx).Envelope()
		},
		"go_home": func(ctx context.Context, _ json.RawMessage) any {
			return auto.GoHome(ctx).Envelope()
		},
		"go_back": func(ctx context.Context, _ json.RawMessage) any {
			return auto.GoBack(ctx).Envelope()
		},
		"require_user_confirmation": typed(func(ctx context.Context, a promptArgs) any {
			return auto.RequireUserConfirmation(ctx, orDefault(a.Prompt, "Empty prompt")).Envelope()
		}),
		"require_user_choice": typed(func(ctx context.Context, a promptArgs) any {
			return auto.RequireUserChoice(ctx, orDefault(a.Prompt, "Empty prompt"), a.Options).Envelope()
		}),
		"show_message": typed(func(ctx context.Context, a messageArgs) any {
			title := orDefault(a.Title, constants.DefaultMessageTitle)
			return auto.ShowMessage(ctx, title, orDefault(a.Content, "No content provided.")).Envelope()
		}),
		"push_message_to_bot": typed(func(ctx context.Context, a botArgs) any {
			message := orDefault(a.Message, "No message content.")
			return auto.PushMessageToBot(ctx, message, a.SuggestionTitle, a.Suggestions).Envelope()
		}),
	}
}
