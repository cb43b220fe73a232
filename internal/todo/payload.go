// ABOUTME: Request payload types and JSON decoding for create and update
// ABOUTME: Only title and completed are accepted from clients; everything else is ignored

package todo

import (
	"bytes"
	"io"

	"github.com/goccy/go-json"
)

// CreateInput carries the client-settable fields of a new item.
type CreateInput struct {
	Title string
}

// UpdateInput carries the fields to change. Nil means leave unchanged.
type UpdateInput struct {
	Title     *string
	Completed *bool
}

// decodeObject reads r and requires a JSON object.
func decodeObject(r io.Reader) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, validationError("reading body: %v", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, validationError("empty body")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, validationError("%v", err)
	}
	if fields == nil {
		return nil, validationError("body must be a JSON object")
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeTitle(fields map[string]json.RawMessage) (*string, error) {
	raw, ok := fields["title"]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		return nil, validationError("title must be a string")
	}
	return &title, nil
}

func decodeCompleted(fields map[string]json.RawMessage) (*bool, error) {
	raw, ok := fields["completed"]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var completed bool
	if err := json.Unmarshal(raw, &completed); err != nil {
		return nil, validationError("completed must be a boolean")
	}
	return &completed, nil
}

// DecodeCreate parses a create request body. Client-supplied id, timestamps
// and completed are ignored.
func DecodeCreate(r io.Reader) (CreateInput, error) {
	fields, err := decodeObject(r)
	if err != nil {
		return CreateInput{}, err
	}
	title, err := decodeTitle(fields)
	if err != nil {
		return CreateInput{}, err
	}

	var in CreateInput
	if title != nil {
		in.Title = *title
	}
	return in, nil
}

// DecodeUpdate parses an update request body.
func DecodeUpdate(r io.Reader) (UpdateInput, error) {
	fields, err := decodeObject(r)
	if err != nil {
		return UpdateInput{}, err
	}
	title, err := decodeTitle(fields)
	if err != nil {
		return UpdateInput{}, err
	}
	completed, err := decodeCompleted(fields)
	if err != nil {
		return UpdateInput{}, err
	}
	return UpdateInput{Title: title, Completed: completed}, nil
}
