// Package httpapi exposes the Operation JSON surface of spec §6 over HTTP
// (POST /operations/{kind}, POST /chains) using github.com/go-chi/chi/v5 —
// the one outer surface spec.md keeps in scope, since §6 documents its JSON
// shape as a first-class external interface rather than part of the
// excluded reflective Graph façade. The router dispatches through
// operation.Execute to the same explicit registry direct Go callers use;
// it adds no handler logic of
// its own beyond request/response framing.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"elementstore/internal/middleware"
	"elementstore/operation"
)

// NewRouter builds the chi router exposing env's operations over HTTP.
func NewRouter(env *operation.Environment, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(chimw.Timeout(30 * time.Second))

	h := &Handler{env: env, logger: logger}

	r.Get("/health", h.health)
	r.Post("/operations/{kind}", h.execute)
	r.Post("/chains", h.chain)

	return r
}

func Serve(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
