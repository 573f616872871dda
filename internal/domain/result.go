package domain

import (
	"encoding/json"
)

// Empty marks operations whose result carries no payload
type Empty struct{}

// OperationResult is the envelope returned by every automation operation and every command response.
// Data is omitted from JSON when nil.
type OperationResult[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}

// Succeeded builds a successful result carrying data
func Succeeded[T any](message string, data T) OperationResult[T] {
	return OperationResult[T]{Success: true, Message: message, Data: &data}
}

// Failed builds an unsuccessful result without data
func Failed[T any](message string) OperationResult[T] {
	return OperationResult[T]{Success: false, Message: message}
}

// Envelope is the type-erased form used by transports
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Envelope drops the type parameter and elides Empty payloads
func (r OperationResult[T]) Envelope() Envelope {
	env := Envelope{Success: r.Success, Message: r.Message}
	if r.Data == nil {
		return env
	}
	if _, empty := any(*r.Data).(Empty); empty {
		return env
	}
	env.Data = *r.Data
	return env
}

// MarshalJSON keeps Empty payloads out of the wire form
func (r OperationResult[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Envelope())
}
