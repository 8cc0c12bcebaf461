package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/buysmart-service/internal/delivery/http/handler"
	"github.com/user/buysmart-service/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(300 * time.Second))
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/queries", h.HandleCreateQuery)
		r.Get("/queries/{id}", h.HandleGetQuery)
		r.Post("/queries/{id}/process", h.HandleProcessQuery)
		r.Get("/queries/{id}/result", h.HandleGetQueryResult)
		r.Get("/queries/{id}/sessions", h.HandleGetQuerySessions)
		r.Get("/products", h.HandleListProducts)
	})

	return r
}
