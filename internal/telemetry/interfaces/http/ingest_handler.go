package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"energymeter-cloud/internal/observability/metrics"
	registry "energymeter-cloud/internal/registry/domain"
	telemetry "energymeter-cloud/internal/telemetry/domain"
)

// DeviceFinder resolves a device id to its registration.
type DeviceFinder interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*registry.Device, error)
}

// IngestHandler accepts readings posted by metering devices.
type IngestHandler struct {
	repo    telemetry.ReadingRepository
	devices DeviceFinder
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(repo telemetry.ReadingRepository, devices DeviceFinder, logger *log.Logger) (*IngestHandler, error) {
	if repo == nil {
		return nil, errors.New("telemetry ingest: nil repository")
	}
	if devices == nil {
		return nil, errors.New("telemetry ingest: nil device finder")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{repo: repo, devices: devices, logger: logger}, nil
}

type ingestRequest struct {
	DeviceID string  `json:"deviceId"`
	Voltage  float64 `json:"voltage"`
	Current  float64 `json:"current"`
	Power    float64 `json:"power"`
}

// ServeHTTP records one reading.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IncIngestError("decode")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.DeviceID == "" {
		metrics.IncIngestError("missing_device")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "deviceId is required", http.StatusBadRequest)
		return
	}

	device, err := h.devices.GetByDeviceID(r.Context(), req.DeviceID)
	if err != nil {
		h.logger.Printf("telemetry ingest: device lookup error: %v", err)
		metrics.IncIngestError("store")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if device == nil {
		metrics.IncIngestError("unknown_device")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}

	reading := &telemetry.Reading{
		DeviceID: req.DeviceID,
		Voltage:  req.Voltage,
		Current:  req.Current,
		Power:    req.Power,
	}
	if err := h.repo.Insert(r.Context(), reading); err != nil {
		h.logger.Printf("telemetry ingest: insert error: %v", err)
		metrics.IncIngestError("store")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "error recording energy data", http.StatusInternalServerError)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(reading)
}
