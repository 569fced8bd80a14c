package llms

import "context"

// StreamingClient opens one streamed model response for the given context
// and tool catalog.
type StreamingClient interface {
	PromptWithStream(ctx context.Context, messages []Message, tools []Tool) Stream
}

// Stream is a lazily evaluated sequence of response chunks.
type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	// FinishReason is non-nil on the chunk that terminates the response.
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamToolCallChunk interface {
	StreamChunk
	Delta() ToolCallDelta
}
