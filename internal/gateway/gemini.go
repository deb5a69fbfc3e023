package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"
)

// contentModel is the part of genai.Models the generator uses.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator produces text with a Gemini model. Failed calls are retried
// with exponential backoff; an empty reply is not retried.
type GeminiGenerator struct {
	models     contentModel
	model      string
	maxRetries int
	newBackOff func() backoff.BackOff
}

var _ TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator for model. Without an API key the
// generator is still returned, and every call fails with ErrGateway.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxRetries int) (*GeminiGenerator, error) {
	g := &GeminiGenerator{
		model:      model,
		maxRetries: maxRetries,
		newBackOff: defaultBackOff,
	}
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

func defaultBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.Multiplier = 2
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = 30 * time.Second
	return exp
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.models == nil {
		return "", fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrGateway)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	var text string
	op := func() error {
		resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
		if err != nil {
			return err
		}
		text = replyText(resp)
		if text == "" {
			return backoff.Permanent(fmt.Errorf("empty response from Gemini"))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(max(g.maxRetries, 0))), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("%w: generating text: %v", ErrGateway, err)
	}
	return text, nil
}

// replyText joins the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
