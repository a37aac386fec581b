package llm

import (
	"context"
	"time"
)

// Client turns a prompt into advice text.
type Client interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// Config is everything the OpenAI client needs. Callers fill it from
// their own configuration; the client never reads the environment.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}
