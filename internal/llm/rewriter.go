package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/sms-booking-bot/internal/escalation"
)

const rewriteRules = `You are a tone adjuster. Your ONLY job is to adjust the warmth/directness of text.

STRICT RULES:
1. Keep EVERY piece of information exactly as written
2. Keep ALL formatting (newlines, colons, structure)
3. Keep ALL field names (DATE:, TIME:, etc)
4. Keep ALL URLs exactly as written
5. Keep ALL punctuation structure
6. ONLY change: warmth of phrasing ("I need" vs "I'll need"), pronoun choices ("your" vs "the")
7. DO NOT add new information
8. DO NOT remove information
9. DO NOT change what's being asked for
10. Reply with the adjusted message only`

// ToneRewriter asks a model to restyle a message without changing its content.
// Callers still validate the output.
type ToneRewriter struct {
	client    Client
	model     string
	maxTokens int32
}

func NewToneRewriter(client Client, model string) *ToneRewriter {
	return &ToneRewriter{client: client, model: model, maxTokens: 300}
}

func (r *ToneRewriter) Rewrite(ctx context.Context, text string, tone escalation.Tone) (string, error) {
	if r == nil || r.client == nil {
		return "", errors.New("llm: rewriter not configured")
	}
	resp, err := r.client.Complete(ctx, Request{
		Model:       r.model,
		System:      []string{rewriteRules},
		Messages:    []Message{{Role: RoleUser, Content: RewritePrompt(text, tone)}},
		MaxTokens:   r.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("llm: rewrite: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// RewritePrompt is the user turn for a tone rewrite.
func RewritePrompt(text string, tone escalation.Tone) string {
	return fmt.Sprintf("%s\n\nOriginal message:\n%s\n\nAdjusted version (same information, adjusted tone):", tone.Instruction(), text)
}
