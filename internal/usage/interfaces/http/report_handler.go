package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"energymeter-cloud/internal/auth"
	"energymeter-cloud/internal/observability/metrics"
	usageapp "energymeter-cloud/internal/usage/application"
)

// ReportHandler serves the all-time usage report and its exports
// under /api/energy-data/user/total-usage.
type ReportHandler struct {
	service *usageapp.Service
}

// NewReportHandler constructs a report handler.
func NewReportHandler(service *usageapp.Service) (*ReportHandler, error) {
	if service == nil {
		return nil, errors.New("usage report handler: nil service")
	}
	return &ReportHandler{service: service}, nil
}

// ServeHTTP handles the report and export routes.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/api/energy-data/user/total-usage":
		h.handleReport(w, r, userID)
	case "/api/energy-data/user/total-usage/export.pdf":
		h.handleExport(w, r, userID, "pdf")
	case "/api/energy-data/user/total-usage/export.xlsx":
		h.handleExport(w, r, userID, "xlsx")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ReportHandler) handleReport(w http.ResponseWriter, r *http.Request, userID string) {
	report, err := h.service.GetTotalUsage(r.Context(), userID)
	if err != nil {
		metrics.IncUsageReport(metrics.ResultError)
		writeUsageError(w, err)
		return
	}
	metrics.IncUsageReport(metrics.ResultSuccess)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (h *ReportHandler) handleExport(w http.ResponseWriter, r *http.Request, userID, format string) {
	report, err := h.service.GetTotalUsage(r.Context(), userID)
	if err != nil {
		metrics.IncReportExport(format, metrics.ResultError)
		writeUsageError(w, err)
		return
	}

	now := time.Now().UTC()
	var payload []byte
	var contentType, filename string
	switch format {
	case "pdf":
		payload, err = BuildUsageReportPDF(report, now)
		contentType = "application/pdf"
		filename = "usage-report.pdf"
	case "xlsx":
		payload, err = BuildUsageReportXLSX(report, now)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "usage-report.xlsx"
	}
	if err != nil {
		metrics.IncReportExport(format, metrics.ResultError)
		http.Error(w, "error building export", http.StatusInternalServerError)
		return
	}

	metrics.IncReportExport(format, metrics.ResultSuccess)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(payload)
}
