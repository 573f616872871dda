package commands

import (
	"context"
	"encoding/json"
	"net/http"

	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

// PayloadKind names the data payload a command responds with
type PayloadKind int

const (
	PayloadUnit PayloadKind = iota
	PayloadCaptureImage
	PayloadCaptureXML
	PayloadMetadata
	PayloadInstalledApplications
	// PayloadNullableString is a bare string that may be absent
	PayloadNullableString
)

// Response is a fully rendered HTTP response
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Handler serves one command
type Handler func(r *http.Request) Response

// Manifest describes one command. Handler groups return them at startup.
type Manifest struct {
	Name        string
	Description string
	ArgNames    []string
	Response    PayloadKind
	OperationID string
	Handler     Handler
}

// Group is a set of related commands
type Group interface {
	Manifests() []Manifest
}

// Result renders an operation result as a 200 envelope. Failures travel in
// the envelope, not in the status code.
func Result[T any](res domain.OperationResult[T]) Response {
	return JSON(http.StatusOK, res.Envelope())
}

// JSON renders v with the given status
func JSON(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode response", "error", err)
		return Text(http.StatusInternalServerError, "Internal server error")
	}
	return Response{Status: status, ContentType: "application/json", Body: body}
}

// Text renders a plain-text response
func Text(status int, msg string) Response {
	return Response{Status: status, ContentType: "text/plain", Body: []byte(msg)}
}

// BadRequest renders a plain-text 400
func BadRequest(msg string) Response {
	return Text(http.StatusBadRequest, msg)
}

// NoArgs adapts a handler that ignores the query string
func NoArgs(fn func(ctx context.Context) Response) Handler {
	return func(r *http.Request) Response {
		return fn(r.Context())
	}
}

// Write sends res to w
func (res Response) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(res.Status)
	if _, err := w.Write(res.Body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}
