package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func TestOperationResultJSON(t *testing.T) {
	tests := []struct {
		name   string
		result any
		want   string
	}{
		{
			name:   "empty payload is omitted",
			result: Succeeded("Go Home executed successfully.", Empty{}),
			want:   `{"success":true,"message":"Go Home executed successfully."}`,
		},
		{
			name:   "failure has no data",
			result: Failed[CaptureXMLData]("Accessibility service is not running."),
			want:   `{"success":false,"message":"Accessibility service is not running."}`,
		},
		{
			name:   "nil xml becomes empty object",
			result: Succeeded("Capture Screenshot XML executed successfully.", CaptureXMLData{}),
			want:   `{"success":true,"message":"Capture Screenshot XML executed successfully.","data":{}}`,
		},
		{
			name:   "string payload",
			result: Succeeded("ok", "confirm"),
			want:   `{"success":true,"message":"ok","data":"confirm"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestClassify(t *testing.T) {
	err := fmt.Errorf("click: %w", Errorf(ErrUnsupportedOperation, "Node is not clickable"))

	assert.Equal(t, ErrUnsupportedOperation, Classify(err))
	assert.Equal(t, "click: Node is not clickable", err.Error())
	assert.Equal(t, ErrInternal, Classify(errors.New("boom")))
}

func TestParseDirections(t *testing.T) {
	d, err := ParseNodeScrollDirection("FORWARD")
	require.NoError(t, err)
	assert.Equal(t, ScrollForward, d)

	_, err = ParseNodeScrollDirection("sideways")
	assert.EqualError(t, err, "Invalid direction: sideways. Use 'forward' or 'backward'.")
	assert.ErrorIs(t, err, ErrBadRequest)

	c, err := ParseCoordinateScrollDirection("Left")
	require.NoError(t, err)
	assert.Equal(t, ScrollLeft, c)

	_, err = ParseCoordinateScrollDirection("north")
	assert.EqualError(t, err, "Invalid direction: north. Use up/down/left/right.")
}

func TestFormatPoint(t *testing.T) {
	assert.Equal(t, "(100.0, 12.5)", FormatPoint(100, 12.5))
}

func TestNewBotMessageDefaults(t *testing.T) {
	msg := NewBotMessage("hi", nil, nil)
	assert.Equal(t, "No suggestions", msg.SuggestionTitle)
	assert.NotNil(t, msg.Suggestions)
	assert.Empty(t, msg.Suggestions)
}
