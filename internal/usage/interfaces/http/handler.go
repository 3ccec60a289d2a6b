package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"energymeter-cloud/internal/audit"
	"energymeter-cloud/internal/auth"
	"energymeter-cloud/internal/observability/metrics"
	usageapp "energymeter-cloud/internal/usage/application"
	usage "energymeter-cloud/internal/usage/domain"
)

// Handler provides limit and notification endpoints under
// /api/energy-limits.
type Handler struct {
	service *usageapp.Service
	auditor audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *usageapp.Service, auditor audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("usage handler: nil service")
	}
	return &Handler{service: service, auditor: auditor}, nil
}

// ServeHTTP handles /api/energy-limits and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/api/energy-limits/limits":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSetLimits(w, r, userID)
	case "/api/energy-limits/usage":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleCheckUsage(w, r, userID)
	case "/api/energy-limits/notifications":
		switch r.Method {
		case http.MethodGet:
			h.handleListNotifications(w, r, userID)
		case http.MethodDelete:
			h.handleClearNotifications(w, r, userID, "notifications cleared successfully")
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "/api/energy-limits/notifications/read":
		// Legacy alias: marking read clears the ledger.
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleClearNotifications(w, r, userID, "all notifications marked as read")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type limitsRequest struct {
	Daily   *float64 `json:"daily"`
	Monthly *float64 `json:"monthly"`
}

func (h *Handler) handleSetLimits(w http.ResponseWriter, r *http.Request, userID string) {
	var req limitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	limits, err := h.service.SetLimits(r.Context(), userID, usage.Limits{Daily: req.Daily, Monthly: req.Monthly})
	if err != nil {
		writeUsageError(w, err)
		return
	}
	h.auditAction(r, userID, "limit.set")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "energy limits updated successfully",
		"limits":  limits,
	})
}

func (h *Handler) handleCheckUsage(w http.ResponseWriter, r *http.Request, userID string) {
	start := time.Now()
	result, err := h.service.CheckUsage(r.Context(), userID)
	if err != nil {
		metrics.ObserveUsageCheck(metrics.ResultError, time.Since(start))
		writeUsageError(w, err)
		return
	}
	metrics.ObserveUsageCheck(metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request, userID string) {
	notifications, err := h.service.ListNotifications(r.Context(), userID)
	if err != nil {
		writeUsageError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(notifications)
}

func (h *Handler) handleClearNotifications(w http.ResponseWriter, r *http.Request, userID, message string) {
	if err := h.service.ClearNotifications(r.Context(), userID); err != nil {
		writeUsageError(w, err)
		return
	}
	h.auditAction(r, userID, "notifications.clear")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func (h *Handler) auditAction(r *http.Request, userID, action string) {
	if h.auditor == nil {
		return
	}
	_ = h.auditor.Log(r.Context(), audit.Entry{
		UserID:       userID,
		Action:       action,
		ResourceType: "energy_limit",
		ResourceID:   userID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func writeUsageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usage.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, usage.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, usage.ErrInvalidInput):
		http.Error(w, "invalid limits", http.StatusBadRequest)
	case errors.Is(err, usage.ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
