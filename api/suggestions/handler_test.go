package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

type fakeRanker struct {
	res  *assembler.Result
	err  error
	seen *model.NewJobRequest
}

func (f *fakeRanker) Suggest(_ context.Context, req model.NewJobRequest) (*assembler.Result, error) {
	f.seen = &req
	return f.res, f.err
}

const body = `{"target":{"latitude":39.7,"longitude":-105.0},"service_names":["Carpet Cleaning"],"duration_minutes":90,"preferred_days":["wed"],"preferred_window":{"start":"08:00","end":"12:00"}}`

func serve(t *testing.T, r Ranker, target, payload string) *httptest.ResponseRecorder {
	t.Helper()
	h, err := NewHandler(r, nil)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(payload))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestSuggestOK(t *testing.T) {
	f := &fakeRanker{res: &assembler.Result{
		RequestID:   "r1",
		State:       assembler.StateValidated,
		Suggestions: []model.CandidateSuggestion{{TechnicianID: "b"}},
		Context:     &assembler.RankingContext{DurationMinutes: 90},
	}}
	rr := serve(t, f, "/api/v1/suggestions", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	out := decode(t, rr)
	assert.Equal(t, "r1", out["request_id"])
	assert.Equal(t, "validated", out["state"])
	assert.NotContains(t, out, "context")

	require.NotNil(t, f.seen)
	assert.Equal(t, []string{"Carpet Cleaning"}, f.seen.ServiceNames)
	require.NotNil(t, f.seen.DurationMinutes)
	assert.Equal(t, 90, *f.seen.DurationMinutes)
	assert.Equal(t, []model.Weekday{3}, f.seen.PreferredDays)
	require.NotNil(t, f.seen.PreferredWindow)
	assert.Equal(t, 240, f.seen.PreferredWindow.Minutes())
}

func TestSuggestIncludeContext(t *testing.T) {
	f := &fakeRanker{res: &assembler.Result{RequestID: "r1", Context: &assembler.RankingContext{DurationMinutes: 90}}}
	rr := serve(t, f, "/api/v1/suggestions?include_context=true", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decode(t, rr), "context")
}

func TestSuggestBadRequests(t *testing.T) {
	cases := map[string]string{
		"not json":         "{",
		"no services":      `{"target":{"latitude":39.7,"longitude":-105.0},"service_names":[]}`,
		"blank service":    `{"service_names":[""]}`,
		"latitude range":   `{"target":{"latitude":123,"longitude":0},"service_names":["x"]}`,
		"zero duration":    `{"service_names":["x"],"duration_minutes":0}`,
		"bad weekday":      `{"service_names":["x"],"preferred_days":["someday"]}`,
		"bad time of day":  `{"service_names":["x"],"preferred_window":{"start":"8am","end":"noon"}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			f := &fakeRanker{}
			rr := serve(t, f, "/api/v1/suggestions", payload)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Nil(t, f.seen, "ranker must not be called")
		})
	}
}

func TestSuggestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"rate limited", &assembler.Failure{Reason: assembler.ReasonRateLimited, Err: assembler.ErrRateLimited}, http.StatusTooManyRequests, "rate_limited"},
		{"quota", &assembler.Failure{Reason: assembler.ReasonQuotaExhausted}, http.StatusServiceUnavailable, "quota_exhausted"},
		{"upstream", &assembler.Failure{Reason: assembler.ReasonUpstreamError}, http.StatusServiceUnavailable, "upstream_error"},
		{"invalid", assembler.ErrInvalidRequest, http.StatusBadRequest, ""},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, ""},
		{"store", errors.New("db down"), http.StatusInternalServerError, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeRanker{res: &assembler.Result{RequestID: "r9", State: assembler.StateFailed}, err: c.err}
			rr := serve(t, f, "/api/v1/suggestions", body)
			assert.Equal(t, c.status, rr.Code)
			out := decode(t, rr)
			assert.NotEmpty(t, out["error"])
			if c.reason != "" {
				assert.Equal(t, c.reason, out["reason"])
				assert.Equal(t, "r9", out["request_id"])
				assert.Equal(t, true, out["retryable"])
			}
			assert.NotContains(t, out["error"], "db down")
		})
	}
}

func TestNewHandlerNil(t *testing.T) {
	_, err := NewHandler(nil, nil)
	assert.Error(t, err)
}
