package handlers

import (
	"net/http"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps groups the handlers mounted by NewRouter
type RouterDeps struct {
	Thoughts  *ThoughtHandler
	Users     *UserHandler
	WebSocket *WebSocketHandler
	Health    *HealthHandler
}

// NewRouter builds the HTTP routes. The resource routes are served both
// under /api and at the root.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS)

	resources := func(r chi.Router) {
		r.Route("/thoughts", deps.Thoughts.Routes)
		r.Route("/users", deps.Users.Routes)
	}
	r.Route("/api", resources)
	r.Group(resources)

	if deps.WebSocket != nil {
		r.Get("/ws", deps.WebSocket.HandleWebSocket)
	}
	if deps.Health != nil {
		r.Get("/healthz", deps.Health.Health)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Kind: models.KindNotFound, Message: "Route not found"})
	})

	return r
}
