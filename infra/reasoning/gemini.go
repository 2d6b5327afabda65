package reasoning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// GeminiConfig configures a GeminiReasoner.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiReasoner asks a Gemini model for suggestions.
type GeminiReasoner struct {
	client *genai.Client
	model  string
	temp   float32
	log    logger.Logger

	// generate is replaced in tests.
	generate func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
}

// NewGeminiReasoner creates a reasoner backed by the Gemini API.
func NewGeminiReasoner(ctx context.Context, cfg GeminiConfig, log logger.Logger) (*GeminiReasoner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reasoning: API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("reasoning: failed to create Gemini client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	r := &GeminiReasoner{client: client, model: cfg.Model, temp: cfg.Temperature, log: logger.OrNop(log)}
	r.generate = r.callModel
	return r, nil
}

func (r *GeminiReasoner) callModel(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	m := r.client.GenerativeModel(r.model)
	m.SetTemperature(r.temp)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}
	return m.GenerateContent(ctx, genai.Text(prompt))
}

// Reason implements assembler.Reasoner. Failures wrap the assembler
// sentinel matching the upstream condition.
func (r *GeminiReasoner) Reason(ctx context.Context, rc assembler.RankingContext) (string, error) {
	prompt, err := BuildPrompt(rc)
	if err != nil {
		return "", err
	}
	resp, err := r.generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyError(err)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", assembler.ErrUpstream, err)
	}
	r.log.Debugw("gemini response", map[string]any{
		"request_id": rc.RequestID,
		"model":      r.model,
		"bytes":      len(text),
	})
	return text, nil
}

// Close releases the client.
func (r *GeminiReasoner) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// classifyError maps Gemini API errors to assembler sentinels. HTTP 429 is a
// rate limit unless the message reports an exhausted quota.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	code := 0
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code = gerr.Code
		msg = strings.ToLower(gerr.Message + " " + msg)
	}
	exhausted := code == http.StatusTooManyRequests ||
		strings.Contains(msg, "resourceexhausted") ||
		strings.Contains(msg, "resource has been exhausted") ||
		strings.Contains(msg, "rate limit")
	switch {
	case exhausted && (strings.Contains(msg, "exceeded your current quota") || strings.Contains(msg, "per day")):
		return fmt.Errorf("%w: %v", assembler.ErrQuotaExhausted, err)
	case exhausted:
		return fmt.Errorf("%w: %v", assembler.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", assembler.ErrUpstream, err)
	}
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response (finish reason %v)", c.FinishReason)
	}
	var parts []string
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			parts = append(parts, string(t))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
