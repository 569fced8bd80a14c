package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func testEntry(name string, handler Handler) Entry {
	return Entry{
		Descriptor: Descriptor{
			Name: name,
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {"value": {"type": "string", "enum": ["low", "high"]}},
				"required": ["value"]
			}`),
		},
		Handler: handler,
	}
}

func echoHandler(_ context.Context, args json.RawMessage) (string, error) {
	return string(args), nil
}

func TestNewRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry([]Entry{
		testEntry("sameName", echoHandler),
		testEntry("sameName", echoHandler),
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate name to fail registry construction, got %v", err)
	}
}

func TestNewRegistryRejectsMissingHandler(t *testing.T) {
	_, err := NewRegistry([]Entry{testEntry("handlerless", nil)})
	if err == nil || !strings.Contains(err.Error(), "handler") {
		t.Fatalf("expected missing handler to fail registry construction, got %v", err)
	}
}

func TestNewRegistryRejectsBrokenSchema(t *testing.T) {
	entry := testEntry("brokenSchema", echoHandler)
	entry.Descriptor.Parameters = json.RawMessage(`{"type": 42}`)

	if _, err := NewRegistry([]Entry{entry}); err == nil {
		t.Fatal("expected invalid parameter schema to fail registry construction")
	}
}

func TestRegistryInvokeValidatesArguments(t *testing.T) {
	registry, err := NewRegistry([]Entry{testEntry("pickValue", echoHandler)})
	if err != nil {
		t.Fatalf("expected registry to build, got %v", err)
	}

	if _, err := registry.Invoke(context.Background(), "pickValue", json.RawMessage(`{"value":"medium"}`)); err == nil {
		t.Fatal("expected out-of-enum argument to fail validation")
	}

	response, err := registry.Invoke(context.Background(), "pickValue", json.RawMessage(`{"value":"low"}`))
	if err != nil {
		t.Fatalf("expected valid arguments to reach the handler, got %v", err)
	}
	if response != `{"value":"low"}` {
		t.Fatalf("expected handler response, got %q", response)
	}
}

func TestRegistryInvokeRejectsUnknownTool(t *testing.T) {
	registry, err := NewRegistry(nil)
	if err != nil {
		t.Fatalf("expected empty registry to build, got %v", err)
	}

	if _, err := registry.Invoke(context.Background(), "missing", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected unknown tool to fail")
	}
}

func TestRegistryInvokeBoundsExecutionTime(t *testing.T) {
	entry := testEntry("slowTool", func(ctx context.Context, _ json.RawMessage) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	registry, err := NewRegistry([]Entry{entry}, WithExecutionTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatalf("expected registry to build, got %v", err)
	}

	start := time.Now()
	_, err = registry.Invoke(context.Background(), "slowTool", json.RawMessage(`{"value":"low"}`))
	if err == nil {
		t.Fatal("expected the execution timeout to abort the tool")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected the timeout to fire promptly, took %v", elapsed)
	}
}
