package reasoning

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

func textResponse(parts ...string) *genai.GenerateContentResponse {
	ps := make([]genai.Part, len(parts))
	for i, p := range parts {
		ps[i] = genai.Text(p)
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: ps}}},
	}
}

func stubbed(fn func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)) *GeminiReasoner {
	return &GeminiReasoner{model: DefaultModel, log: logger.NopLogger{}, generate: fn}
}

func rankingContext() assembler.RankingContext {
	return assembler.RankingContext{
		RequestID:          "r1",
		ServiceNames:       []string{"Carpet Cleaning"},
		DurationMinutes:    180,
		StandardStartTimes: []model.TimeOfDay{model.MustTimeOfDay("08:00"), model.MustTimeOfDay("11:00")},
		WindowStart:        date("2026-10-19"),
		WindowEnd:          date("2026-11-02"),
		MaxSuggestions:     5,
		Narrative:          "2026-10-21 (Wednesday):\n  - 2.0 mi | 11:00-14:00",
		Shortlist:          []assembler.Candidate{{TechnicianID: "b", SkillMatch: model.SkillPreferred}},
	}
}

func TestGeminiReason(t *testing.T) {
	var prompt string
	r := stubbed(func(_ context.Context, p string) (*genai.GenerateContentResponse, error) {
		prompt = p
		return textResponse(`{"suggestions":`, `[]}`), nil
	})
	out, err := r.Reason(context.Background(), rankingContext())
	require.NoError(t, err)
	assert.Equal(t, `{"suggestions":[]}`, out)
	assert.Contains(t, prompt, "08:00, 11:00")
	assert.Contains(t, prompt, "lasts 180 minutes")
	assert.Contains(t, prompt, "2026-10-19 and 2026-11-02")
	assert.Contains(t, prompt, `"technician_id": "b"`)
	assert.Contains(t, prompt, "11:00-14:00")
}

func TestGeminiReasonEmptyResponse(t *testing.T) {
	r := stubbed(func(context.Context, string) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	})
	_, err := r.Reason(context.Background(), rankingContext())
	assert.ErrorIs(t, err, assembler.ErrUpstream)
}

func TestGeminiReasonClassifiesErrors(t *testing.T) {
	r := stubbed(func(context.Context, string) (*genai.GenerateContentResponse, error) {
		return nil, &googleapi.Error{Code: 429, Message: "Resource has been exhausted (e.g. check quota)."}
	})
	_, err := r.Reason(context.Background(), rankingContext())
	assert.ErrorIs(t, err, assembler.ErrRateLimited)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.generate = func(ctx context.Context, _ string) (*genai.GenerateContentResponse, error) {
		return nil, fmt.Errorf("rpc: %w", ctx.Err())
	}
	_, err = r.Reason(ctx, rankingContext())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&googleapi.Error{Code: 429, Message: "Resource has been exhausted (e.g. check quota)."}, assembler.ErrRateLimited},
		{&googleapi.Error{Code: 429, Message: "You exceeded your current quota, please check your plan"}, assembler.ErrQuotaExhausted},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 503, Message: "The model is overloaded"}), assembler.ErrUpstream},
		{errors.New("rpc error: code = ResourceExhausted desc = Quota exceeded for requests per day"), assembler.ErrQuotaExhausted},
		{errors.New("rpc error: code = ResourceExhausted desc = too many requests"), assembler.ErrRateLimited},
		{errors.New("dial tcp: connection refused"), assembler.ErrUpstream},
	}
	for _, tc := range cases {
		got := classifyError(tc.err)
		assert.ErrorIs(t, got, tc.want, tc.err.Error())
	}
}

func TestExtractText(t *testing.T) {
	_, err := extractText(nil)
	assert.Error(t, err)
	_, err = extractText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
	_, err = extractText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
	}}})
	assert.Error(t, err)
	text, err := extractText(textResponse("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}

func TestNewGeminiReasonerRequiresKey(t *testing.T) {
	_, err := NewGeminiReasoner(context.Background(), GeminiConfig{}, nil)
	assert.Error(t, err)
}
