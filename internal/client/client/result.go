package client

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/cuponcode/internal/common"
)

// Payload holds the action-specific fields of an envelope.
type Payload map[string]any

// Result is the outcome of one Call. Fields keeps every top-level member
// of the backend response untouched, success and error included.
type Result struct {
	Success bool
	Error   string
	// SessionInvalidated is set when the backend rejected the session and
	// the local session has been cleared.
	SessionInvalidated bool
	Fields             map[string]json.RawMessage
}

// Failure builds an unsuccessful Result carrying msg.
func Failure(msg string) *Result {
	return &Result{Error: msg}
}

// Has reports whether the response carried key.
func (r *Result) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// Decode unmarshals the response member key into v.
func (r *Result) Decode(key string, v any) error {
	raw, ok := r.Fields[key]
	if !ok {
		return fmt.Errorf("response has no %q: %w", key, common.ErrorNotFound)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

// ErrorOr returns the backend error text, or def when there is none.
func (r *Result) ErrorOr(def string) string {
	if r.Error != "" {
		return r.Error
	}
	return def
}

// parseResult interprets a response body. Only a JSON object is accepted.
// Non-string "error" members are kept in Fields and rendered as text.
func parseResult(body []byte) (*Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("response is not an object")
	}

	res := &Result{Fields: fields}
	if raw, ok := fields[common.FieldSuccess]; ok {
		_ = json.Unmarshal(raw, &res.Success)
	}
	if raw, ok := fields[common.FieldError]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			res.Error = s
		} else if string(raw) != "null" {
			res.Error = string(raw)
		}
	}
	return res, nil
}
