package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	// Stream sends the conversation and returns incremental text chunks.
	// Both channels are closed when the stream ends; at most one error is sent.
	Stream(ctx context.Context, messages []Message) (chunks <-chan string, errs <-chan error)
	Close() error
}
