package commands

import (
	"net/http"

	services "github.com/inference-gateway/operator/internal/services"
)

// MessageCommands talk to the device user and the companion bot
type MessageCommands struct {
	auto *services.Automation
}

// NewMessageCommands creates the message group
func NewMessageCommands(auto *services.Automation) *MessageCommands {
	return &MessageCommands{auto: auto}
}

func (c *MessageCommands) Manifests() []Manifest {
	return []Manifest{
		{
			Name:        "requireUserConfirmation",
			Description: "Require user confirmation with a prompt.",
			ArgNames:    []string{"prompt"},
			Response:    PayloadNullableString,
			Handler:     c.confirm,
		},
		{
			Name:        "requireUserChoice",
			Description: "Require user to choose from a list of options, dividing by semicolon(;).",
			ArgNames:    []string{"prompt", "options"},
			Response:    PayloadNullableString,
			Handler:     c.choose,
		},
		{
			Name:        "pushMessageToBot",
			Description: "Push a message to the bot with optional suggestions.",
			ArgNames:    []string{"message", "suggestionTitle", "suggestions"},
			Handler:     c.pushToBot,
		},
		{
			Name:        "showMessage",
			Description: "Push a message to the user.",
			ArgNames:    []string{"title", "content"},
			Handler:     c.showMessage,
		},
	}
}

func (c *MessageCommands) confirm(r *http.Request) Response {
	prompt := Args(r).String("prompt")
	if prompt == nil {
		return BadRequest("Missing prompt")
	}
	return Result(c.auto.RequireUserConfirmation(r.Context(), *prompt))
}

func (c *MessageCommands) choose(r *http.Request) Response {
	q := Args(r)
	prompt, options := q.String("prompt"), q.SemicolonList("options")
	if prompt == nil || len(options) == 0 {
		return BadRequest("Missing prompt or options")
	}
	return Result(c.auto.RequireUserChoice(r.Context(), *prompt, options))
}

func (c *MessageCommands) pushToBot(r *http.Request) Response {
	q := Args(r)
	message := q.String("message")
	if message == nil {
		return BadRequest("Missing message")
	}
	return Result(c.auto.PushMessageToBot(r.Context(), *message, q.String("suggestionTitle"), q.SemicolonList("suggestions")))
}

func (c *MessageCommands) showMessage(r *http.Request) Response {
	q := Args(r)
	title, content := q.String("title"), q.String("content")
	if title == nil || content == nil {
		return BadRequest("Missing title or content")
	}
	return Result(c.auto.ShowMessage(r.Context(), *title, *content))
}
