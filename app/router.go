package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiaudit "github.com/kwikdrytn/kwikdry-sub000/api/audit"
	"github.com/kwikdrytn/kwikdry-sub000/api/suggestions"
	coreaudit "github.com/kwikdrytn/kwikdry-sub000/core/audit"
	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
)

// NewRouter mounts the HTTP API:
//
//	GET  /healthz
//	POST /api/v1/suggestions
//	GET  /api/v1/rankings
func NewRouter(r suggestions.Ranker, st coreaudit.Store, auditToken string, log logger.Logger) (http.Handler, error) {
	sh, err := suggestions.NewHandler(r, log)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = coreaudit.NopStore{}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/suggestions", sh)
		r.Method(http.MethodGet, "/rankings", apiaudit.NewHandler(st, auditToken))
	})
	return mux, nil
}
