package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CaptureImageData carries a JPEG screenshot as a data URI
type CaptureImageData struct {
	ImageBase64 *string `json:"imageBase64,omitempty"`
}

// CaptureXMLData carries the serialized UI tree; XML is nil when no window is active
type CaptureXMLData struct {
	XML *string `json:"xml,omitempty"`
}

// MetadataData describes the current foreground window
type MetadataData struct {
	PackageName  *string `json:"packageName,omitempty"`
	ActivityName *string `json:"activityName,omitempty"`
}

// InstalledApplicationsData holds parallel slices: PackageNames[i] is labelled ApplicationNames[i]
type InstalledApplicationsData struct {
	PackageNames     []string `json:"packageNames"`
	ApplicationNames []string `json:"applicationNames"`
}

// Timestamps holds the last capture times in epoch milliseconds
type Timestamps struct {
	Screenshot int64 `json:"screenshot"`
	XML        int64 `json:"xml"`
}

// CommandInfo is one entry of the /commands listing
type CommandInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ArgNames    []string `json:"argNames"`
}

// NodeScrollDirection selects an accessibility scroll action
type NodeScrollDirection string

const (
	ScrollForward  NodeScrollDirection = "forward"
	ScrollBackward NodeScrollDirection = "backward"
)

// ParseNodeScrollDirection accepts forward or backward, case-insensitive
func ParseNodeScrollDirection(s string) (NodeScrollDirection, error) {
	switch d := NodeScrollDirection(strings.ToLower(s)); d {
	case ScrollForward, ScrollBackward:
		return d, nil
	}
	return "", Errorf(ErrBadRequest, "Invalid direction: %s. Use 'forward' or 'backward'.", s)
}

// CoordinateScrollDirection selects the swipe direction of a coordinate scroll
type CoordinateScrollDirection string

const (
	ScrollUp    CoordinateScrollDirection = "up"
	ScrollDown  CoordinateScrollDirection = "down"
	ScrollLeft  CoordinateScrollDirection = "left"
	ScrollRight CoordinateScrollDirection = "right"
)

// ParseCoordinateScrollDirection accepts up, down, left or right, case-insensitive
func ParseCoordinateScrollDirection(s string) (CoordinateScrollDirection, error) {
	switch d := CoordinateScrollDirection(strings.ToLower(s)); d {
	case ScrollUp, ScrollDown, ScrollLeft, ScrollRight:
		return d, nil
	}
	return "", Errorf(ErrBadRequest, "Invalid direction: %s. Use up/down/left/right.", s)
}

// DialogueAction is one button of a dialogue overlay
type DialogueAction struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BotMessage is forwarded to the companion bot
type BotMessage struct {
	Message         string   `json:"message"`
	SuggestionTitle string   `json:"suggestionTitle"`
	Suggestions     []string `json:"suggestions"`
}

// NewBotMessage applies the defaults used when the caller omits suggestions
func NewBotMessage(message string, suggestionTitle *string, suggestions []string) BotMessage {
	title := "No suggestions"
	if suggestionTitle != nil {
		title = *suggestionTitle
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return BotMessage{Message: message, SuggestionTitle: title, Suggestions: suggestions}
}

// FormatPoint renders coordinates the way operation names show them, e.g. (100.0, 12.5)
func FormatPoint(x, y float64) string {
	return fmt.Sprintf("(%s, %s)", formatFloat(x), formatFloat(y))
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
