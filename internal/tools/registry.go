// Package tools exposes a fixed set of named operations to agent clients
// authenticated with API keys.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrUnknownTool is returned by Call for a name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when arguments do not match the tool's input schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// HandlerFunc runs one tool call with raw JSON arguments.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a named operation with a JSON schema for its arguments.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`

	handler HandlerFunc
	schema  *jsonschema.Schema
}

// Registry maps tool names to handlers. It is filled once at startup and
// read-only afterwards.
type Registry struct {
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. The input schema is compiled immediately.
func (r *Registry) Register(name, description, inputSchema string, h HandlerFunc) error {
	if _, dup := r.tools[name]; dup {
		return fmt.Errorf("tool %q already registered", name)
	}
	schema, err := jsonschema.CompileString("https://wmsopt.dev/tools/"+name, inputSchema)
	if err != nil {
		return fmt.Errorf("compile schema for tool %q: %w", name, err)
	}
	r.tools[name] = &Tool{
		Name:        name,
		Description: description,
		InputSchema: json.RawMessage(inputSchema),
		handler:     h,
		schema:      schema,
	}
	return nil
}

// List returns the registered tools ordered by name.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call validates args against the tool's schema and runs it. Empty args are
// treated as an empty object.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := t.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return t.handler(ctx, args)
}
