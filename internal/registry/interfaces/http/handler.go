package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energymeter-cloud/internal/audit"
	"energymeter-cloud/internal/auth"
	registryapp "energymeter-cloud/internal/registry/application"
	registry "energymeter-cloud/internal/registry/domain"
)

// Handler provides device HTTP endpoints under /api/devices.
type Handler struct {
	service *registryapp.Service
	auditor audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *registryapp.Service, auditor audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("registry handler: nil service")
	}
	return &Handler{service: service, auditor: auditor}, nil
}

// ServeHTTP handles /api/devices and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/api/devices" || r.URL.Path == "/api/devices/":
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r, userID)
		case http.MethodGet:
			h.handleList(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/devices/"):
		deviceID := strings.TrimPrefix(r.URL.Path, "/api/devices/")
		if deviceID == "" || strings.Contains(deviceID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.handleUpdate(w, r, userID, deviceID)
		case http.MethodDelete:
			h.handleDelete(w, r, userID, deviceID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type deviceRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	device, err := h.service.AddDevice(r.Context(), userID, req.Name, req.Location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.auditAction(r, userID, "device.create", device.DeviceID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(device)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, userID string) {
	devices, err := h.service.ListDevices(r.Context(), userID)
	if err != nil {
		http.Error(w, "error fetching devices", http.StatusInternalServerError)
		return
	}
	if devices == nil {
		devices = []registry.Device{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(devices)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, userID, deviceID string) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	device, err := h.service.UpdateDevice(r.Context(), userID, deviceID, req.Name, req.Location)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			http.Error(w, "device not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.auditAction(r, userID, "device.update", deviceID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(device)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, userID, deviceID string) {
	if err := h.service.DeleteDevice(r.Context(), userID, deviceID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			http.Error(w, "device not found", http.StatusNotFound)
			return
		}
		http.Error(w, "error deleting device", http.StatusInternalServerError)
		return
	}
	h.auditAction(r, userID, "device.delete", deviceID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "device deleted successfully"})
}

func (h *Handler) auditAction(r *http.Request, userID, action, deviceID string) {
	if h.auditor == nil {
		return
	}
	_ = h.auditor.Log(r.Context(), audit.Entry{
		UserID:       userID,
		Action:       action,
		ResourceType: "device",
		ResourceID:   deviceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}
