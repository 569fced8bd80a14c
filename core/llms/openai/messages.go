package openai

import (
	"encoding/json"

	"github.com/vancelk/switchboard/core/llms"
)

type message struct {
	Role    messageRole `json:"role"`
	Name    string      `json:"name,omitempty"`
	Content string      `json:"content"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "function"
)

func toMessages(conversation []llms.Message) []message {
	messages := make([]message, 0, len(conversation))
	for _, msg := range conversation {
		wireMsg := message{Content: msg.Content}
		switch msg.Role {
		case llms.RoleSystem:
			wireMsg.Role = messageRoleSystem
		case llms.RoleUser:
			wireMsg.Role = messageRoleUser
		case llms.RoleAssistant:
			wireMsg.Role = messageRoleAssistant
		case llms.RoleTool:
			wireMsg.Role = messageRoleTool
			wireMsg.Name = msg.Name
		}
		messages = append(messages, wireMsg)
	}
	return messages
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type requestBody struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	Stream     bool      `json:"stream"`
	Tools      []tool    `json:"tools,omitempty"`
	ToolChoice *string   `json:"tool_choice,omitempty"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}
