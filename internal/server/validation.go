package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Tomlord1122/todo-api/internal/service"
)

const maxBodyBytes = 1 << 20

//go:embed todo_create.schema.json
var todoCreateSchemaJSON string

var todoCreateSchema = jsonschema.MustCompileString("todo_create.schema.json", todoCreateSchemaJSON)

// requestError is a client mistake that maps directly to an HTTP status.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func unprocessable(format string, args ...any) error {
	return &requestError{status: http.StatusUnprocessableEntity, msg: fmt.Sprintf(format, args...)}
}

// decodeTodoCreate reads a TodoCreate body, checking it against the JSON
// schema before binding it.
func decodeTodoCreate(w http.ResponseWriter, r *http.Request) (service.TodoCreate, error) {
	var req service.TodoCreate

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, &requestError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("Request body must not be larger than %d bytes", maxErr.Limit),
			}
		}
		return req, fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, unprocessable("Request body must not be empty")
	}

	doc, err := decodeJSON(body)
	if err != nil {
		return req, err
	}

	if err := todoCreateSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return req, unprocessable("Invalid request body: %s", describeValidation(ve))
		}
		return req, fmt.Errorf("validate request body: %w", err)
	}

	return bindTodoCreate(doc.(map[string]any))
}

// bindTodoCreate copies a schema-valid document into a TodoCreate. Keys the
// schema does not declare, such as an echoed "id", are ignored.
func bindTodoCreate(doc map[string]any) (service.TodoCreate, error) {
	req := service.TodoCreate{Title: doc["title"].(string)}
	if d, ok := doc["description"].(string); ok {
		req.Description = &d
	}
	if raw, ok := doc["is_completed"]; ok {
		completed, err := coerceBool(raw)
		if err != nil {
			return req, unprocessable("Invalid request body: /is_completed: %v", err)
		}
		req.IsCompleted = completed
	}
	return req, nil
}

// coerceBool accepts the lenient boolean spellings clients commonly send:
// JSON booleans, the integers 0 and 1, and strings like "true", "1" or "yes".
func coerceBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case json.Number:
		if f, err := b.Float64(); err == nil && (f == 0 || f == 1) {
			return f == 1, nil
		}
	case string:
		switch strings.ToLower(b) {
		case "true", "1", "yes", "on", "t", "y":
			return true, nil
		case "false", "0", "no", "off", "f", "n":
			return false, nil
		}
	}
	return false, fmt.Errorf("%v is not a valid boolean", v)
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		var syntaxError *json.SyntaxError
		switch {
		case errors.As(err, &syntaxError):
			return nil, unprocessable("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, unprocessable("Request body contains badly-formed JSON")
		default:
			return nil, unprocessable("Request body could not be decoded: %v", err)
		}
	}
	if dec.More() {
		return nil, unprocessable("Request body must only contain a single JSON object")
	}
	return doc, nil
}

// describeValidation flattens the leaf causes of a schema failure into one
// line such as "/is_completed: expected boolean, but got string".
func describeValidation(ve *jsonschema.ValidationError) string {
	var parts []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			parts = append(parts, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(parts, "; ")
}
