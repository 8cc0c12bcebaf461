package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/user/buysmart-service/internal/delivery/http/request"
	"github.com/user/buysmart-service/internal/delivery/http/response"
	"github.com/user/buysmart-service/internal/repository"
	"github.com/user/buysmart-service/internal/usecase"
)

// PingFunc checks one backing dependency for the health endpoint.
type PingFunc func(ctx context.Context) error

type Handler struct {
	queries   usecase.QueryManager
	pipeline  usecase.PipelineRunner
	pgPing    PingFunc
	redisPing PingFunc
}

func NewHandler(queries usecase.QueryManager, pipeline usecase.PipelineRunner, pgPing, redisPing PingFunc) *Handler {
	return &Handler{
		queries:   queries,
		pipeline:  pipeline,
		pgPing:    pgPing,
		redisPing: redisPing,
	}
}

func (h *Handler) HandleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var req request.CreateQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	query, err := h.queries.Create(r.Context(), req.QueryText)
	if err != nil {
		if errors.Is(err, usecase.ErrQueryTooShort) {
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Failed to create query", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, response.NewQueryResponse(query))
}

// HandleProcessQuery runs the pipeline synchronously. A failed pipeline
// still answers 200 with the failure payload; 5xx is reserved for
// handler-level problems.
func (h *Handler) HandleProcessQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.pipeline.Process(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.writeJSONError(w, "Query not found", http.StatusNotFound)
		case errors.Is(err, usecase.ErrAlreadyProcessing):
			h.writeJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, usecase.ErrAlreadyCompleted):
			h.writeJSON(w, http.StatusOK, map[string]string{"message": "Query already processed"})
		case result != nil:
			h.writeJSON(w, http.StatusOK, result)
		default:
			slog.Error("Failed to process query", "query_id", id, "error", err)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleGetQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	query, err := h.queries.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Query not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get query", "query_id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewQueryResponse(query))
}

func (h *Handler) HandleGetQueryResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.queries.Result(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.writeJSONError(w, "Query not found", http.StatusNotFound)
		case errors.Is(err, usecase.ErrResultNotReady):
			h.writeJSONError(w, "Query has not been processed", http.StatusNotFound)
		case errors.Is(err, usecase.ErrResultPending):
			h.writeJSONError(w, "Query is still processing", http.StatusAccepted)
		case errors.Is(err, usecase.ErrQueryFailed):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("Failed to get query result", "query_id", id, "error", err)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewQueryResultResponse(result))
}

func (h *Handler) HandleGetQuerySessions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sessions, err := h.queries.Sessions(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Query not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get sessions", "query_id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]response.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, response.NewSessionResponse(s))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	queryID := r.URL.Query().Get("query_id")
	if queryID == "" {
		h.writeJSONError(w, "query_id query parameter is required", http.StatusBadRequest)
		return
	}

	products, err := h.queries.Products(r.Context(), queryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Query not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to list products", "query_id", queryID, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]response.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, response.NewProductResponse(p))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := response.HealthResponse{Status: "ok", Postgres: "up", Redis: "up"}
	status := http.StatusOK

	if err := h.pgPing(r.Context()); err != nil {
		slog.Warn("Postgres health check failed", "error", err)
		resp.Status, resp.Postgres = "degraded", "down"
		status = http.StatusServiceUnavailable
	}
	if err := h.redisPing(r.Context()); err != nil {
		slog.Warn("Redis health check failed", "error", err)
		resp.Status, resp.Redis = "degraded", "down"
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
