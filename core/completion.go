package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/vancelk/switchboard/core/events"
	"github.com/vancelk/switchboard/core/llms"
	"github.com/vancelk/switchboard/core/tools"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultMaxToolRounds = 10

// Orchestrator owns one call's conversation context and turns finalized
// caller transcripts into streamed, speakable reply segments. Tool calls
// requested by the model are resolved in bounded rounds: each round streams
// one model response, and a tool-call finish feeds the tool result back as
// the next round's input.
type Orchestrator struct {
	client   llms.StreamingClient
	registry *tools.Registry

	onSegment func(interaction int, index *int, text string)
	onEvent   func(events.Event)

	maxToolRounds int

	// mu serializes completions so the context is mutated by one round at a
	// time even when transcripts finalize back to back.
	mu           sync.Mutex
	messages     []llms.Message
	segmentIndex int
}

type OrchestratorOption func(*Orchestrator)

// WithMaxToolRounds bounds how many consecutive tool-call rounds one
// completion may chain before it is aborted.
func WithMaxToolRounds(rounds int) OrchestratorOption {
	return func(o *Orchestrator) {
		if rounds > 0 {
			o.maxToolRounds = rounds
		}
	}
}

// WithEventCallback registers an observer for tool-call lifecycle events.
func WithEventCallback(callback func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onEvent = callback
	}
}

func NewOrchestrator(
	client llms.StreamingClient,
	registry *tools.Registry,
	onSegment func(interaction int, index *int, text string),
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		client:        client,
		registry:      registry,
		onSegment:     onSegment,
		maxToolRounds: defaultMaxToolRounds,
		messages: []llms.Message{
			{Role: llms.RoleSystem, Content: systemPrompt},
			{Role: llms.RoleAssistant, Content: greetingMessage},
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Greeting is the opening line the conversation context is seeded with.
func (o *Orchestrator) Greeting() string { return greetingMessage }

// SetCallSID records the call SID in the context so the model can pass it to
// call-control tools.
func (o *Orchestrator) SetCallSID(callSID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, llms.Message{
		Role:    llms.RoleSystem,
		Content: fmt.Sprintf("callSid: %s", callSID),
	})
}

func (o *Orchestrator) emit(event events.Event) {
	if o.onEvent != nil {
		o.onEvent(event)
	}
}

// Complete runs one caller interaction to completion, emitting speakable
// segments as the model streams. It returns once the final round ends in an
// ordinary assistant reply or a round fails.
func (o *Orchestrator) Complete(ctx context.Context, transcript string, interaction int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx, span := tracer.Start(ctx, "complete interaction")
	defer span.End()
	span.SetAttributes(attribute.Int("interaction", interaction))

	input := llms.Message{Role: llms.RoleUser, Content: transcript}
	for round := 0; round < o.maxToolRounds; round++ {
		o.messages = append(o.messages, input)

		outcome, err := o.streamRound(ctx, interaction)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		if outcome.toolName == "" {
			o.messages = append(o.messages, llms.Message{
				Role:    llms.RoleAssistant,
				Content: outcome.content,
			})
			return nil
		}

		response, err := o.invokeTool(ctx, outcome.toolName, outcome.toolArgs, interaction)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		input = llms.Message{Role: llms.RoleTool, Name: outcome.toolName, Content: response}
	}

	err := fmt.Errorf("completion exceeded %d tool rounds", o.maxToolRounds)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type roundOutcome struct {
	// content is the round's full assistant text, pause markers included.
	content string
	// toolName is set when the round finished by requesting a tool call.
	toolName string
	toolArgs string
}

func (o *Orchestrator) streamRound(ctx context.Context, interaction int) (roundOutcome, error) {
	stream := o.client.PromptWithStream(ctx, o.messages, o.registry.Definitions())

	var outcome roundOutcome
	var complete, pending strings.Builder
	var finishReason string

	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			return roundOutcome{}, fmt.Errorf("failed to stream completion: %w", err)
		}

		if reason := chunk.FinishReason(); reason != nil {
			finishReason = *reason
		}

		switch chunk := chunk.(type) {
		case llms.StreamToolCallChunk:
			delta := chunk.Delta()
			if outcome.toolName == "" && delta.Name != "" {
				outcome.toolName = delta.Name
			}
			outcome.toolArgs += delta.Arguments

		case llms.StreamContentChunk:
			content := chunk.Content()
			complete.WriteString(content)
			pending.WriteString(content)

			if strings.HasSuffix(strings.TrimSpace(pending.String()), pauseMarker) {
				o.emitSegment(interaction, pending.String())
				pending.Reset()
			}
		}
	}

	if finishReason != llms.FinishReasonToolCalls {
		o.emitSegment(interaction, pending.String())
	}

	outcome.content = complete.String()
	if finishReason != llms.FinishReasonToolCalls {
		outcome.toolName = ""
		outcome.toolArgs = ""
	}
	return outcome, nil
}

// emitSegment hands one speakable segment downstream under the next sequence
// index. Pause markers are stripped; they are segmentation hints, not speech.
func (o *Orchestrator) emitSegment(interaction int, text string) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), pauseMarker))
	if text == "" {
		return
	}

	index := o.segmentIndex
	o.segmentIndex++
	if o.onSegment != nil {
		o.onSegment(interaction, &index, text)
	}
}

// Announce emits text outside the sequenced reply flow, e.g. the greeting or
// a recording notice.
func (o *Orchestrator) Announce(interaction int, text string) {
	if o.onSegment != nil {
		o.onSegment(interaction, nil, text)
	}
}

func (o *Orchestrator) invokeTool(ctx context.Context, name, args string, interaction int) (string, error) {
	ctx, span := tracer.Start(ctx, "invoke tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	arguments, err := repairArguments(args)
	if err != nil {
		o.emit(events.NewToolCallFailed(name, err.Error()))
		return "", fmt.Errorf("invalid arguments for tool %q: %w", name, err)
	}

	descriptor, ok := o.registry.Descriptor(name)
	if !ok {
		err := fmt.Errorf("model requested unknown tool %q", name)
		o.emit(events.NewToolCallFailed(name, err.Error()))
		return "", err
	}

	// Immediate spoken acknowledgment; the tool itself may be slow.
	o.Announce(interaction, descriptor.Say)
	o.emit(events.NewToolCallStarted(name, string(arguments)))

	response, err := o.registry.Invoke(ctx, name, arguments)
	if err != nil {
		o.emit(events.NewToolCallFailed(name, err.Error()))
		return "", fmt.Errorf("tool %q failed: %w", name, err)
	}

	o.emit(events.NewToolCallCompleted(name, response))
	return response, nil
}

// repairArguments parses streamed tool arguments, recovering from the known
// provider quirk of concatenating the same JSON object twice. Only the first
// object is kept; any other malformation is a hard failure.
func repairArguments(args string) (json.RawMessage, error) {
	if json.Valid([]byte(args)) {
		return json.RawMessage(args), nil
	}

	logger.Warn("Malformed tool arguments returned by provider", "arguments", args)
	if strings.Index(args, "{") != strings.LastIndex(args, "{") {
		if end := strings.Index(args, "}"); end != -1 {
			repaired := args[:end+1]
			if json.Valid([]byte(repaired)) {
				return json.RawMessage(repaired), nil
			}
		}
	}
	return nil, fmt.Errorf("arguments are not valid JSON")
}
