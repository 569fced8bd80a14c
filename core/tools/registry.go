package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	schemavalidation "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/vancelk/switchboard/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultExecutionTimeout = 30 * time.Second

// Registry holds the immutable tool catalog, loaded once at process start
// and shared read-only across all call sessions. Every catalog entry is
// checked at construction time so a missing handler or a broken schema fails
// at startup, not mid-call.
type Registry struct {
	descriptors []Descriptor
	handlers    map[string]Handler
	schemas     map[string]*schemavalidation.Schema

	executionTimeout time.Duration
}

type RegistryOption func(*Registry)

// WithExecutionTimeout bounds how long a single tool invocation may run.
func WithExecutionTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		if timeout > 0 {
			r.executionTimeout = timeout
		}
	}
}

func NewRegistry(entries []Entry, opts ...RegistryOption) (*Registry, error) {
	registry := &Registry{
		handlers:         make(map[string]Handler, len(entries)),
		schemas:          make(map[string]*schemavalidation.Schema, len(entries)),
		executionTimeout: defaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(registry)
	}

	for _, entry := range entries {
		name := entry.Descriptor.Name
		if name == "" {
			return nil, fmt.Errorf("tool descriptor with empty name")
		}
		if _, exists := registry.handlers[name]; exists {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		if entry.Handler == nil {
			return nil, fmt.Errorf("tool %q has no registered handler", name)
		}

		schema, err := compileSchema(name, entry.Descriptor.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %q has invalid parameter schema: %w", name, err)
		}

		registry.descriptors = append(registry.descriptors, entry.Descriptor)
		registry.handlers[name] = entry.Handler
		registry.schemas[name] = schema
	}

	return registry, nil
}

func compileSchema(name string, raw json.RawMessage) (*schemavalidation.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	compiler := schemavalidation.NewCompiler()
	resource := name + ".schema.json"
	if err := compiler.AddResource(resource, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// Definitions returns the catalog in the form the LLM request carries.
func (r *Registry) Definitions() []llms.Tool {
	definitions := make([]llms.Tool, 0, len(r.descriptors))
	for _, descriptor := range r.descriptors {
		definitions = append(definitions, llms.Tool{
			Name:        descriptor.Name,
			Description: descriptor.Description,
			Parameters:  descriptor.Parameters,
		})
	}
	return definitions
}

// Descriptor looks up a catalog entry by name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	for _, descriptor := range r.descriptors {
		if descriptor.Name == name {
			return descriptor, true
		}
	}
	return Descriptor{}, false
}

// Invoke validates the argument object against the tool's parameter schema
// and runs the registered handler under the execution timeout.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (string, error) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	handler, ok := r.handlers[name]
	if !ok {
		err := fmt.Errorf("tool not found: %s", name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if schema := r.schemas[name]; schema != nil {
		var decoded any
		if err := json.Unmarshal(args, &decoded); err != nil {
			err = fmt.Errorf("tool %q arguments are not valid JSON: %w", name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		if err := schema.Validate(decoded); err != nil {
			err = fmt.Errorf("tool %q arguments failed validation: %w", name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.executionTimeout)
	defer cancel()

	response, err := handler(ctx, args)
	if err != nil {
		err = fmt.Errorf("failed to execute tool %q: %w", name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	logger.InfoContext(ctx, "tool executed", "tool", name)
	return response, nil
}
