package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/interfaces"
)

// Operation names reported to the observer.
const (
	OperationPin   = "pin"
	OperationUnpin = "unpin"
	OperationLs    = "ls"
	OperationInfo  = "info"
)

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// OperationObserver records the outcome of pinning operations, e.g. as metrics.
type OperationObserver interface {
	ObserveOperation(operation string, start time.Time, err error)
}

// Handler exposes a pinning backend, usually an aggregation, over HTTP.
type Handler struct {
	pinning  interfaces.Pinning
	observer OperationObserver
	log      *slog.Logger
}

// NewHandler creates a new HTTP request handler for the given pinning backend.
func NewHandler(pinning interfaces.Pinning, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		pinning: pinning,
		log:     log,
	}
}

// HandlePin pins a CID on every backend.
//
// URL format: POST /api/pins/{cid}
//
// Responds 200 with {"cid": ...}, 400 for an invalid CID and 502 if any backend fails.
func (h *Handler) HandlePin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, err := parseCid(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.pinning.Pin(r.Context(), c)
	h.observe(OperationPin, start, err)
	if err != nil {
		h.log.Error("Failed to pin", slog.String("cid", c.String()), "err", err)
		h.writeError(w, &RequestError{StatusCode: http.StatusBadGateway, Err: err})
		return
	}

	h.writeJSON(w, map[string]string{"cid": c.String()})
}

// HandleUnpin unpins a CID on every backend, best effort.
//
// URL format: DELETE /api/pins/{cid}
//
// Responds 200 for any valid CID, whether or not the backends succeeded.
func (h *Handler) HandleUnpin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, err := parseCid(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.pinning.Unpin(r.Context(), c)
	h.observe(OperationUnpin, start, err)

	h.writeJSON(w, map[string]string{"cid": c.String()})
}

// HandleLs lists pinned CIDs with the ids of the backends holding them.
//
// URL format: GET /api/pins
func (h *Handler) HandleLs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	list, err := h.pinning.Ls(r.Context())
	h.observe(OperationLs, start, err)
	if err != nil {
		h.log.Error("Failed to list pins", "err", err)
		h.writeError(w, &RequestError{StatusCode: http.StatusBadGateway, Err: err})
		return
	}

	h.writeJSON(w, list)
}

// HandleInfo returns the aggregation id and the merged backend diagnostics.
//
// URL format: GET /api/info
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	info, err := h.pinning.Info(r.Context())
	h.observe(OperationInfo, start, err)
	if err != nil {
		h.log.Error("Failed to get pinning info", "err", err)
		h.writeError(w, &RequestError{StatusCode: http.StatusBadGateway, Err: err})
		return
	}

	h.writeJSON(w, map[string]any{
		"id":       h.pinning.ID(),
		"backends": info,
	})
}

func parseCid(r *http.Request) (cid.Cid, error) {
	raw := r.PathValue("cid")
	if raw == "" {
		return cid.Undef, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("missing CID in URL")}
	}
	c, err := cid.Decode(raw)
	if err != nil {
		return cid.Undef, &RequestError{StatusCode: http.StatusBadRequest, Err: err}
	}
	return c, nil
}

func (h *Handler) observe(operation string, start time.Time, err error) {
	if h.observer != nil {
		h.observer.ObserveOperation(operation, start, err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status = reqErr.StatusCode
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
