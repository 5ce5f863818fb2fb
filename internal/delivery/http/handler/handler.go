package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/delivery/http/response"
	"github.com/user/scamshield-agent/internal/messaging"
)

// maxMessageBytes bounds a single bus message; page snapshots dominate the size.
const maxMessageBytes = 8 << 20

// MessageDispatcher is the bus the HTTP surface forwards to.
type MessageDispatcher interface {
	DispatchRaw(ctx context.Context, raw []byte) (messaging.Response, error)
}

// Pinger is a dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	bus    MessageDispatcher
	checks map[string]Pinger
	logger *zap.Logger
}

func NewHandler(bus MessageDispatcher, checks map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		bus:    bus,
		checks: checks,
		logger: logger,
	}
}

// HandleMessage accepts one typed bus message and returns its response
// envelope. Malformed or unknown messages are a 400.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSONError(w, "Message too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.bus.DispatchRaw(r.Context(), raw)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := response.Health{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Checks[name] = "unhealthy"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "healthy"
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.Error{Error: message})
}
