package ingestion

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
)

// maxBodyBytes bounds the ingest request body.
const maxBodyBytes = 1 << 20

// Handler handles HTTP requests for the ingestion service.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new ingestion HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("handler", "ingestion"),
	}
}

// HandleProcess handles POST /process
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil || payload == nil {
		h.writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	name, ok := payload["name"].(string)
	if !ok || name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if id, present := payload["id"]; present && id != nil {
		if _, ok := id.(string); !ok {
			h.writeError(w, http.StatusBadRequest, "id must be a string")
			return
		}
	}

	out, err := h.service.ProcessEvent(r.Context(), ProcessEventInput{Payload: payload})
	if err != nil {
		if errors.Is(err, item.ErrInvalidItem) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, out)
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
