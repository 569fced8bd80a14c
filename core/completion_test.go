package session

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vancelk/switchboard/core/llms"
	"github.com/vancelk/switchboard/core/tools"
	"github.com/vancelk/switchboard/internal/utils"
)

type contentChunk struct {
	content string
	finish  *string
}

func (c contentChunk) FinishReason() *string { return c.finish }
func (c contentChunk) Content() string       { return c.content }

type toolCallChunk struct {
	delta  llms.ToolCallDelta
	finish *string
}

func (c toolCallChunk) FinishReason() *string     { return c.finish }
func (c toolCallChunk) Delta() llms.ToolCallDelta { return c.delta }

type scriptedStream struct {
	chunks []llms.StreamChunk
}

func (s scriptedStream) Chunks(context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// scriptedClient replays one canned stream per completion round and records
// the message history each round was opened with.
type scriptedClient struct {
	streams  []scriptedStream
	calls    int
	recorded [][]llms.Message
}

func (c *scriptedClient) PromptWithStream(_ context.Context, messages []llms.Message, _ []llms.Tool) llms.Stream {
	c.recorded = append(c.recorded, append([]llms.Message(nil), messages...))
	if c.calls >= len(c.streams) {
		return scriptedStream{}
	}
	stream := c.streams[c.calls]
	c.calls++
	return stream
}

type capturedSegment struct {
	interaction int
	index       *int
	text        string
}

func newTestRegistry(t *testing.T, invocations *[]string) *tools.Registry {
	t.Helper()

	entries := []tools.Entry{{
		Descriptor: tools.Descriptor{
			Name: "addDentalInsurance",
			Say:  "One moment while I update your policy.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {"dentalCoverageType": {"type": "string"}},
				"required": ["dentalCoverageType"]
			}`),
		},
		Handler: func(_ context.Context, args json.RawMessage) (string, error) {
			*invocations = append(*invocations, string(args))
			return `{"updatedMonthlyPremium": 374}`, nil
		},
	}}

	registry, err := tools.NewRegistry(entries)
	if err != nil {
		t.Fatalf("expected registry to build, got %v", err)
	}
	return registry
}

func TestOrchestratorSplitsReplyAtPauseMarkers(t *testing.T) {
	client := &scriptedClient{streams: []scriptedStream{{chunks: []llms.StreamChunk{
		contentChunk{content: "Hi there! •"},
		contentChunk{content: " How can I help"},
		contentChunk{content: " you today? •"},
		contentChunk{content: " Take your time."},
		contentChunk{finish: utils.Ptr(llms.FinishReasonStop)},
	}}}}

	var segments []capturedSegment
	var invocations []string
	orchestrator := NewOrchestrator(client, newTestRegistry(t, &invocations),
		func(interaction int, index *int, text string) {
			segments = append(segments, capturedSegment{interaction, index, text})
		})

	if err := orchestrator.Complete(context.Background(), "hello", 0); err != nil {
		t.Fatalf("expected completion to succeed, got %v", err)
	}

	want := []string{"Hi there!", "How can I help you today?", "Take your time."}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %d: %v", len(want), len(segments), segments)
	}
	for i, segment := range segments {
		if segment.text != want[i] {
			t.Fatalf("expected segment %d to be %q, got %q", i, want[i], segment.text)
		}
		if segment.index == nil || *segment.index != i {
			t.Fatalf("expected segment %d to carry index %d, got %v", i, i, segment.index)
		}
	}
}

func TestOrchestratorSegmentIndicesGrowAcrossInteractions(t *testing.T) {
	client := &scriptedClient{streams: []scriptedStream{
		{chunks: []llms.StreamChunk{
			contentChunk{content: "First reply."},
			contentChunk{finish: utils.Ptr(llms.FinishReasonStop)},
		}},
		{chunks: []llms.StreamChunk{
			contentChunk{content: "Second reply."},
			contentChunk{finish: utils.Ptr(llms.FinishReasonStop)},
		}},
	}}

	var segments []capturedSegment
	var invocations []string
	orchestrator := NewOrchestrator(client, newTestRegistry(t, &invocations),
		func(interaction int, index *int, text string) {
			segments = append(segments, capturedSegment{interaction, index, text})
		})

	if err := orchestrator.Complete(context.Background(), "one", 0); err != nil {
		t.Fatalf("expected first completion to succeed, got %v", err)
	}
	if err := orchestrator.Complete(context.Background(), "two", 1); err != nil {
		t.Fatalf("expected second completion to succeed, got %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("expected two segments, got %d", len(segments))
	}
	if *segments[0].index != 0 || *segments[1].index != 1 {
		t.Fatalf("expected indices to keep growing across interactions, got %d then %d",
			*segments[0].index, *segments[1].index)
	}
}

func TestOrchestratorToolCallRound(t *testing.T) {
	client := &scriptedClient{streams: []scriptedStream{
		{chunks: []llms.StreamChunk{
			toolCallChunk{delta: llms.ToolCallDelta{Name: "addDentalInsurance"}},
			toolCallChunk{delta: llms.ToolCallDelta{Arguments: `{"dentalCoverage`}},
			toolCallChunk{delta: llms.ToolCallDelta{Arguments: `Type":"basic"}`}, finish: utils.Ptr(llms.FinishReasonToolCalls)},
		}},
		{chunks: []llms.StreamChunk{
			contentChunk{content: "Your plan now includes basic dental."},
			contentChunk{finish: utils.Ptr(llms.FinishReasonStop)},
		}},
	}}

	var segments []capturedSegment
	var invocations []string
	orchestrator := NewOrchestrator(client, newTestRegistry(t, &invocations),
		func(interaction int, index *int, text string) {
			segments = append(segments, capturedSegment{interaction, index, text})
		})

	if err := orchestrator.Complete(context.Background(), "add basic dental", 0); err != nil {
		t.Fatalf("expected tool round to succeed, got %v", err)
	}

	if client.calls != 2 {
		t.Fatalf("expected exactly one recursion after the tool call, got %d rounds", client.calls)
	}
	if len(invocations) != 1 {
		t.Fatalf("expected the tool to be invoked exactly once, got %d", len(invocations))
	}
	if invocations[0] != `{"dentalCoverageType":"basic"}` {
		t.Fatalf("expected reassembled arguments, got %q", invocations[0])
	}

	if len(segments) != 2 {
		t.Fatalf("expected announcement plus reply, got %d segments", len(segments))
	}
	if segments[0].index != nil {
		t.Fatalf("expected the announcement to be out of band, got index %v", segments[0].index)
	}
	if segments[0].text != "One moment while I update your policy." {
		t.Fatalf("expected the tool announcement, got %q", segments[0].text)
	}

	var toolMessages int
	for _, message := range client.recorded[1] {
		if message.Role == llms.RoleTool {
			toolMessages++
			if message.Name != "addDentalInsurance" {
				t.Fatalf("expected tool result attributed to the tool, got name %q", message.Name)
			}
		}
	}
	if toolMessages != 1 {
		t.Fatalf("expected exactly one tool-result message in the next round, got %d", toolMessages)
	}
}

func TestOrchestratorRepairsDuplicatedToolArguments(t *testing.T) {
	repaired, err := repairArguments(`{"a":1}{"a":1}`)
	if err != nil {
		t.Fatalf("expected duplicated arguments to be repaired, got %v", err)
	}
	if string(repaired) != `{"a":1}` {
		t.Fatalf("expected first object only, got %q", repaired)
	}
}

func TestOrchestratorRejectsUnparseableToolArguments(t *testing.T) {
	if _, err := repairArguments(`{"a":`); err == nil {
		t.Fatal("expected truncated arguments to fail")
	}
}

func TestOrchestratorFailsRoundOnUnknownTool(t *testing.T) {
	client := &scriptedClient{streams: []scriptedStream{
		{chunks: []llms.StreamChunk{
			toolCallChunk{delta: llms.ToolCallDelta{Name: "bogusTool", Arguments: `{}`}, finish: utils.Ptr(llms.FinishReasonToolCalls)},
		}},
	}}

	var invocations []string
	orchestrator := NewOrchestrator(client, newTestRegistry(t, &invocations), nil)

	err := orchestrator.Complete(context.Background(), "do something", 0)
	if err == nil {
		t.Fatal("expected unknown tool to fail the round")
	}
	if !strings.Contains(err.Error(), "bogusTool") {
		t.Fatalf("expected the error to name the tool, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected no recursion after the failed round, got %d rounds", client.calls)
	}
}

func TestOrchestratorBoundsConsecutiveToolRounds(t *testing.T) {
	toolRound := scriptedStream{chunks: []llms.StreamChunk{
		toolCallChunk{delta: llms.ToolCallDelta{Name: "addDentalInsurance", Arguments: `{"dentalCoverageType":"basic"}`}, finish: utils.Ptr(llms.FinishReasonToolCalls)},
	}}
	client := &scriptedClient{streams: []scriptedStream{toolRound, toolRound, toolRound}}

	var invocations []string
	orchestrator := NewOrchestrator(client, newTestRegistry(t, &invocations), nil,
		WithMaxToolRounds(2))

	err := orchestrator.Complete(context.Background(), "loop forever", 0)
	if err == nil {
		t.Fatal("expected the round limit to abort the completion")
	}
	if client.calls != 2 {
		t.Fatalf("expected completion to stop after 2 rounds, got %d", client.calls)
	}
}
