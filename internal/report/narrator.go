package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const narratorSystemPrompt = `You are a public-information writer for a city air quality and wildfire dashboard.
Rewrite the provided status report as a short plain-English advisory for residents.
Keep it under 80 words, keep every number from the report, and do not speculate
beyond what the report states.`

// Narrator rewrites the deterministic three-line summary into a short
// advisory using the OpenAI API. It is optional; callers fall back to the
// plain summary when no narrator is configured or a request fails.
type Narrator struct {
	client openai.Client
	model  string
}

// NewNarrator creates a narrator.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewNarrator() (*Narrator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Narrator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Narrate turns a summary into advisory prose. The deterministic summary is
// authoritative; this is presentation only.
func (n *Narrator) Narrate(ctx context.Context, s Summary, city string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf("City: %s\n%s", city, s.Text())

	resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: n.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(narratorSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion returned")
	}

	log.Printf("narrator: generated %d character advisory", len(text))
	return text, nil
}
