package symptoms

import (
	"context"
	"strings"
)

const triagePrompt = `You are a symptom checker for a telehealth clinic. Ask short follow-up
questions when the description is vague. When you have enough detail, list
possible causes in plain language, say how urgent the situation looks
(self-care, book a visit, urgent care, or emergency) and suggest which kind
of specialist to book. You are not a doctor and must say so when giving an
assessment. If the patient describes chest pain, trouble breathing, stroke
symptoms, severe bleeding or thoughts of self-harm, tell them to call
emergency services immediately.`

// Checker applies the triage prompt to a patient conversation.
type Checker struct {
	llm LLMClient
}

func NewChecker(llm LLMClient) *Checker {
	if llm == nil {
		panic("symptoms: llm client required")
	}
	return &Checker{llm: llm}
}

// Check answers the last user message in history.
func (c *Checker) Check(ctx context.Context, history []Message, attachment *Attachment) (string, error) {
	trimmed := make([]Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) != "" {
			trimmed = append(trimmed, m)
		}
	}
	if len(trimmed) == 0 || trimmed[len(trimmed)-1].Role != RoleUser {
		return "", ErrEmptyConversation
	}
	return c.llm.Complete(ctx, Request{System: triagePrompt, History: trimmed, Attachment: attachment})
}
