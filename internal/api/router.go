/**
 * @description
 * This file sets up the HTTP router for the benefit-service. It defines the API
 * endpoints, associates them with their handlers, and applies standard
 * middleware for logging, panic recovery, and request timeouts.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// BenefitRoutes creates and returns the router for the benefit endpoints. It is
// intended to be mounted at /api/v1/benefits.
func BenefitRoutes(h *BenefitHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Get("/", h.ListBenefitsHandler)
	r.Get("/pageable", h.PaginateBenefitsHandler)
	r.Post("/", h.CreateBenefitHandler)
	r.Put("/transfer", h.TransferHandler)
	r.Put("/{id}", h.UpdateBenefitHandler)
	r.Delete("/{id}", h.DeleteBenefitHandler)

	return r
}
