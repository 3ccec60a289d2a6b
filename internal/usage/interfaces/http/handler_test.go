package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	accounts "energymeter-cloud/internal/accounts/domain"
	"energymeter-cloud/internal/auth"
	registry "energymeter-cloud/internal/registry/domain"
	telemetry "energymeter-cloud/internal/telemetry/domain"
	usageapp "energymeter-cloud/internal/usage/application"
	usage "energymeter-cloud/internal/usage/domain"
)

type stubDevices struct{ devices []registry.Device }

func (s *stubDevices) ListByOwner(_ context.Context, ownerID string) ([]registry.Device, error) {
	var result []registry.Device
	for _, device := range s.devices {
		if device.OwnerID == ownerID {
			result = append(result, device)
		}
	}
	return result, nil
}

type stubReadings struct{ readings []telemetry.Reading }

func (s *stubReadings) ReadingsFor(_ context.Context, deviceIDs []string, start, _ time.Time) ([]telemetry.Reading, error) {
	allowed := make(map[string]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		allowed[id] = true
	}
	var result []telemetry.Reading
	for _, reading := range s.readings {
		if !allowed[reading.DeviceID] {
			continue
		}
		if !start.IsZero() && reading.Timestamp.Before(start) {
			continue
		}
		result = append(result, reading)
	}
	return result, nil
}

type stubLimits struct{ limits map[string]*accounts.EnergyLimit }

func (s *stubLimits) GetLimit(_ context.Context, userID string) (*accounts.EnergyLimit, error) {
	return s.limits[userID], nil
}

func (s *stubLimits) SetLimit(_ context.Context, userID string, limit accounts.EnergyLimit) error {
	if _, ok := s.limits[userID]; !ok {
		return accounts.ErrNotFound
	}
	s.limits[userID] = &limit
	return nil
}

type memoryLedger struct{ notifications map[string][]usage.Notification }

func (l *memoryLedger) Append(_ context.Context, userID string, notifications []usage.Notification) error {
	l.notifications[userID] = append(l.notifications[userID], notifications...)
	return nil
}

func (l *memoryLedger) ListAll(_ context.Context, userID string) ([]usage.Notification, error) {
	return append([]usage.Notification(nil), l.notifications[userID]...), nil
}

func (l *memoryLedger) ClearAll(_ context.Context, userID string) error {
	delete(l.notifications, userID)
	return nil
}

func newTestService(t *testing.T) (*usageapp.Service, *stubLimits, *memoryLedger) {
	t.Helper()
	limits := &stubLimits{limits: map[string]*accounts.EnergyLimit{"user-1": {}}}
	ledger := &memoryLedger{notifications: map[string][]usage.Notification{}}
	devices := &stubDevices{devices: []registry.Device{
		{DeviceID: "dev-1", OwnerID: "user-1", Name: "Meter A", Location: "kitchen"},
	}}
	readings := &stubReadings{readings: []telemetry.Reading{
		{DeviceID: "dev-1", Voltage: 230, Current: 5, Power: 150, Timestamp: time.Now().UTC()},
	}}
	service, err := usageapp.NewService(devices, readings, limits, ledger, usageapp.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, limits, ledger
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.WithUser(req.Context(), "user-1"))
}

func TestHandler_RequiresAuth(t *testing.T) {
	service, _, _ := newTestService(t)
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/energy-limits/usage", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSetLimitsEndpoint(t *testing.T) {
	service, limits, _ := newTestService(t)
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/energy-limits/limits", []byte(`{"daily":100,"monthly":2000}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	stored := limits.limits["user-1"]
	if stored == nil || stored.Daily == nil || *stored.Daily != 100 {
		t.Fatalf("expected daily limit persisted, got %+v", stored)
	}
	if stored.Monthly == nil || *stored.Monthly != 2000 {
		t.Fatalf("expected monthly limit persisted, got %+v", stored)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/energy-limits/limits", []byte(`{"daily":-5}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", rec.Code)
	}
}

func TestCheckUsageEndpoint_RecordsNotification(t *testing.T) {
	service, limits, ledger := newTestService(t)
	daily := 100.0
	limits.limits["user-1"] = &accounts.EnergyLimit{Daily: &daily}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/energy-limits/usage", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result usage.WindowResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.DailyUsage != 150 {
		t.Fatalf("expected daily usage 150, got %v", result.DailyUsage)
	}
	if len(result.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(result.Notifications))
	}
	if len(ledger.notifications["user-1"]) != 1 {
		t.Fatalf("expected ledger record, got %d", len(ledger.notifications["user-1"]))
	}
}

func TestNotificationsLifecycle(t *testing.T) {
	service, _, ledger := newTestService(t)
	ledger.notifications["user-1"] = []usage.Notification{
		{UserID: "user-1", Message: "Daily energy limit of 100W exceeded. Current total usage: 150.00W", Timestamp: time.Now().UTC()},
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/energy-limits/notifications", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []usage.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(listed))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/energy-limits/notifications", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/energy-limits/notifications", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty list after clear, got %s", body)
	}
}

func TestMarkReadAliasClears(t *testing.T) {
	service, _, ledger := newTestService(t)
	ledger.notifications["user-1"] = []usage.Notification{
		{UserID: "user-1", Message: "Monthly energy limit of 1000W exceeded. Current total usage: 1500.00W", Timestamp: time.Now().UTC()},
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/energy-limits/notifications/read", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ledger.notifications["user-1"]) != 0 {
		t.Fatal("expected ledger cleared by read alias")
	}
}

func TestReportHandler(t *testing.T) {
	service, _, _ := newTestService(t)
	handler, err := NewReportHandler(service)
	if err != nil {
		t.Fatalf("new report handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/energy-data/user/total-usage", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report usage.UsageReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalDevices != 1 || report.TotalReadings != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.TotalPowerUsage != 150 {
		t.Fatalf("expected total power 150, got %v", report.TotalPowerUsage)
	}
}

func TestReportHandler_PDFExport(t *testing.T) {
	service, _, _ := newTestService(t)
	handler, err := NewReportHandler(service)
	if err != nil {
		t.Fatalf("new report handler: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/energy-data/user/total-usage/export.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected pdf content type, got %s", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF magic bytes")
	}
}
