// Package suggestions exposes ranking operations over HTTP.
package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// Ranker runs one ranking operation against fresh data.
type Ranker interface {
	Suggest(ctx context.Context, req model.NewJobRequest) (*assembler.Result, error)
}

// Handler serves POST /api/v1/suggestions.
type Handler struct {
	ranker    Ranker
	validator *validator.Validate
	log       logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(r Ranker, log logger.Logger) (*Handler, error) {
	if r == nil {
		return nil, fmt.Errorf("suggestions: nil parameter provided to NewHandler")
	}
	return &Handler{ranker: r, validator: validator.New(), log: logger.OrNop(log)}, nil
}

type errorBody struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ServeHTTP decodes a NewJobRequest and answers with the ranking result.
// The ranking context is only included with ?include_context=true.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req model.NewJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: extractValidationErrors(err)})
		return
	}

	res, err := h.ranker.Suggest(r.Context(), req)
	if err != nil {
		h.writeError(w, r, res, err)
		return
	}
	if r.URL.Query().Get("include_context") != "true" {
		res.Context = nil
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, res *assembler.Result, err error) {
	var requestID string
	if res != nil {
		requestID = res.RequestID
	}
	var failure *assembler.Failure
	switch {
	case errors.Is(err, assembler.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &failure):
		status := http.StatusServiceUnavailable
		if failure.Reason == assembler.ReasonRateLimited {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, errorBody{
			Error:     failure.UserMessage(),
			Reason:    string(failure.Reason),
			RequestID: requestID,
			Retryable: failure.Retryable(),
		})
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		h.log.Debugf("client went away before ranking %s completed", requestID)
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "ranking timed out", RequestID: requestID})
	default:
		h.log.Errorf("ranking failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to rank technicians"})
	}
}

// extractValidationErrors returns the first validation error.
func extractValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ve := verrs[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Namespace(), ve.Tag())
	}
	return "validation error: invalid request"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
