// ABOUTME: Maps todo service errors to HTTP statuses and renders JSON response bodies
// ABOUTME: Shared by the HTTP gateway and the Lambda proxy handlers so both answer identically

package transport

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/2389/todo-gateway/internal/todo"
)

// Response messages returned to clients.
const (
	MsgNotFound    = "To-Do item not found."
	MsgInvalidBody = "Invalid JSON in request body."
	MsgConflict    = "To-Do item was modified by another request."
	MsgInternal    = "Internal server error."
	MsgDeleted     = "Item deleted successfully."
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is the JSON shape of a bare acknowledgement.
type MessageBody struct {
	Message string `json:"message"`
}

// StatusFor returns the HTTP status and client-facing message for err.
// Anything outside the todo taxonomy is an internal error.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, todo.ErrValidation):
		return http.StatusBadRequest, MsgInvalidBody
	case errors.Is(err, todo.ErrConflict):
		return http.StatusConflict, MsgConflict
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// ErrorPayload returns the status and encoded body for err.
func ErrorPayload(err error) (int, []byte) {
	status, msg := StatusFor(err)
	body, _ := json.Marshal(ErrorBody{Error: msg})
	return status, body
}

// DeletedPayload is the body returned after a successful delete.
func DeletedPayload() []byte {
	body, _ := json.Marshal(MessageBody{Message: MsgDeleted})
	return body
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// WriteError writes the mapped error response for err.
func WriteError(w http.ResponseWriter, err error) {
	status, body := ErrorPayload(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
