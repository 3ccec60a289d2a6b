package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"energymeter-cloud/internal/auth"
	telemetry "energymeter-cloud/internal/telemetry/domain"
)

const recentReadingsLimit = 100

// ReadingsHandler serves per-device reading queries for device owners.
type ReadingsHandler struct {
	query   telemetry.ReadingQuery
	devices DeviceFinder
	logger  *log.Logger
}

// NewReadingsHandler constructs a readings handler.
func NewReadingsHandler(query telemetry.ReadingQuery, devices DeviceFinder, logger *log.Logger) (*ReadingsHandler, error) {
	if query == nil {
		return nil, errors.New("telemetry readings: nil query")
	}
	if devices == nil {
		return nil, errors.New("telemetry readings: nil device finder")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ReadingsHandler{query: query, devices: devices, logger: logger}, nil
}

// ServeHTTP handles /api/energy-data/device/{deviceId} and .../latest.
func (h *ReadingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/energy-data/device/")
	latest := false
	if strings.HasSuffix(path, "/latest") {
		latest = true
		path = strings.TrimSuffix(path, "/latest")
	}
	deviceID := strings.Trim(path, "/")
	if deviceID == "" || strings.Contains(deviceID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	device, err := h.devices.GetByDeviceID(r.Context(), deviceID)
	if err != nil {
		h.logger.Printf("telemetry readings: device lookup error: %v", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if device == nil || device.OwnerID != userID {
		// Absent and foreign devices look identical to the caller.
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if latest {
		reading, err := h.query.LatestByDevice(r.Context(), deviceID)
		if err != nil {
			h.logger.Printf("telemetry readings: latest query error: %v", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(reading)
		return
	}

	readings, err := h.query.RecentByDevice(r.Context(), deviceID, recentReadingsLimit)
	if err != nil {
		h.logger.Printf("telemetry readings: recent query error: %v", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if readings == nil {
		readings = []telemetry.Reading{}
	}
	_ = json.NewEncoder(w).Encode(readings)
}
