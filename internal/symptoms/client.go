// Package symptoms is the boundary to the generative model behind the
// symptom checker. It only templates prompts and relays text; it makes no
// claim about the quality of the model's answers.
package symptoms

import (
	"context"
	"errors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyConversation is returned when there is no user turn to answer.
var ErrEmptyConversation = errors.New("symptoms: at least one message is required")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attachment is an optional file (an image of a rash, a lab PDF) sent with
// the last user turn.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request is a completion request: a system prompt, history ending in the
// user's turn, and an optional attachment.
type Request struct {
	System     string
	History    []Message
	Attachment *Attachment
}

// LLMClient completes a conversation.
type LLMClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}
