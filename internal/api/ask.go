package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lectern-ai/lectern/internal/graph"
)

// maxAskBodyBytes caps the request body for the ask endpoint.
const maxAskBodyBytes = 64 * 1024

// AnswerRunner runs one full answering turn. Satisfied by *graph.Graph.
type AnswerRunner interface {
	Run(ctx context.Context, question string) (*graph.Result, error)
}

type askHandler struct {
	runner AnswerRunner
	logger *slog.Logger
}

// askRequest is the ingress payload.
type askRequest struct {
	Message string `json:"message"`
}

// ask handles POST /api/v1/ask. It runs the full loop synchronously and
// returns the terminal result in one response.
func (h *askHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, "empty_message", "message is required", h.logger)
		return
	}

	result, err := h.runner.Run(r.Context(), req.Message)
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func (h *askHandler) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.logger.With("request_id", requestIDFromContext(r.Context()))

	switch {
	case errors.Is(err, graph.ErrEmptyQuestion):
		WriteError(w, http.StatusBadRequest, "empty_message", "message is required", logger)

	case errors.Is(err, graph.ErrRetrievalUnavailable):
		logger.Error("retrieval unavailable", "error", err)
		WriteError(w, http.StatusBadGateway, "retrieval_unavailable",
			"the course material index is currently unreachable", logger)

	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		logger.Info("request cancelled by client")

	default:
		logger.Error("answering turn failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "turn_failed",
			"failed to answer the question", logger)
	}
}
