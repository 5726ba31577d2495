package roadmap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hpatkar/verdeiq/internal/scoring"
)

// ChatClient abstracts the chat-completion API. Implemented by
// cohere.Client.
type ChatClient interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Generator produces the narrative roadmap for a score. Failures are
// expected and non-fatal: the score stands on its own, the narrative is
// an enrichment.
type Generator struct {
	client ChatClient
}

// NewGenerator creates a Generator backed by the given chat client.
func NewGenerator(client ChatClient) *Generator {
	return &Generator{client: client}
}

// Generate builds the prompt and asks the chat API for a roadmap. The
// returned error describes a CollaboratorError; callers report it as a
// warning and keep the score visible.
func (g *Generator) Generate(ctx context.Context, result scoring.Result, companySummary string) (string, error) {
	prompt := BuildPrompt(result, companySummary)

	text, err := g.client.Chat(ctx, prompt)
	if err != nil {
		slog.Warn("roadmap generation failed", "error", err)
		return "", fmt.Errorf("generating roadmap: %w", err)
	}
	return text, nil
}
