package llms

import "encoding/json"

// Role describes who a conversation message is from.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool attributes a message to a tool result. Tool messages carry
	// the tool's name so the model can attribute the payload correctly.
	RoleTool Role = "tool"
)

// Message is a single entry in a conversation context. The context is
// append-only for the lifetime of a call; it is never reordered or
// truncated.
type Message struct {
	Role    Role
	Name    string
	Content string
}

// Tool describes one callable function exposed to the model. Parameters is
// a JSON schema for the argument object.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCallDelta is one streamed fragment of a tool invocation request. The
// provider may split the function name and the argument string across many
// deltas; consumers must concatenate argument fragments and take the first
// non-empty name.
type ToolCallDelta struct {
	Name      string
	Arguments string
}

const (
	// FinishReasonStop terminates a streamed response with plain text.
	FinishReasonStop = "stop"
	// FinishReasonToolCalls terminates a streamed response with a tool
	// invocation request.
	FinishReasonToolCalls = "tool_calls"
)
