package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	accounts "energymeter-cloud/internal/accounts/domain"
	"energymeter-cloud/internal/observability/metrics"
	registry "energymeter-cloud/internal/registry/domain"
	usage "energymeter-cloud/internal/usage/domain"
)

// DeviceDirectory lists the devices a user owns.
type DeviceDirectory interface {
	ListByOwner(ctx context.Context, ownerID string) ([]registry.Device, error)
}

// LimitStore reads and writes per-user energy limits.
type LimitStore interface {
	GetLimit(ctx context.Context, userID string) (*accounts.EnergyLimit, error)
	SetLimit(ctx context.Context, userID string, limit accounts.EnergyLimit) error
}

// Notifier delivers recorded breaches to an external channel.
type Notifier interface {
	Notify(ctx context.Context, userID string, notifications []usage.Notification) error
}

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service implements usage aggregation, limit checks and the
// notification ledger operations.
type Service struct {
	devices  DeviceDirectory
	readings ReadingSource
	limits   LimitStore
	ledger   usage.NotificationLedger
	notifier Notifier
	clock    Clock
	location *time.Location
	renotify time.Duration
	logger   *log.Logger
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the system clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation anchors check windows to a timezone.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithNotifier adds a best-effort delivery channel for breaches.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithRenotifyInterval suppresses repeat notifications for a period
// recorded within the interval. Zero keeps the default: every check
// that finds a breach appends a fresh record.
func WithRenotifyInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.renotify = interval
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs the usage service.
func NewService(devices DeviceDirectory, readings ReadingSource, limits LimitStore, ledger usage.NotificationLedger, opts ...Option) (*Service, error) {
	if devices == nil {
		return nil, errors.New("usage service: nil device directory")
	}
	if readings == nil {
		return nil, errors.New("usage service: nil reading source")
	}
	if limits == nil {
		return nil, errors.New("usage service: nil limit store")
	}
	if ledger == nil {
		return nil, errors.New("usage service: nil notification ledger")
	}
	service := &Service{
		devices:  devices,
		readings: readings,
		limits:   limits,
		ledger:   ledger,
		clock:    systemClock{},
		location: time.Local,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// GetTotalUsage builds the all-time usage report for a user. Users
// without devices or readings get an empty report, not an error.
func (s *Service) GetTotalUsage(ctx context.Context, userID string) (*usage.UsageReport, error) {
	if userID == "" {
		return nil, usage.ErrUnauthorized
	}
	devices, err := s.devices.ListByOwner(ctx, userID)
	if err != nil {
		return nil, wrapStore("list devices", err)
	}

	report := &usage.UsageReport{
		TotalDevices: len(devices),
		Devices:      []usage.AggregateRecord{},
	}
	if len(devices) == 0 {
		return report, nil
	}

	readings, err := s.readings.ReadingsFor(ctx, deviceIDs(devices), time.Time{}, time.Time{})
	if err != nil {
		return nil, wrapStore("fetch readings", err)
	}

	records := AggregateByDevice(devices, readings)
	var totalPower float64
	for _, record := range records {
		totalPower += record.TotalPower
		report.TotalReadings += record.ReadingCount
	}
	report.TotalPowerUsage = round2(totalPower)
	if records != nil {
		report.Devices = records
	}
	return report, nil
}

// CheckUsage computes current daily and monthly totals, evaluates them
// against the user's limits and records a notification per breached
// period. The check itself keeps no state: absent a renotify interval,
// consecutive breaching checks each append a record.
func (s *Service) CheckUsage(ctx context.Context, userID string) (*usage.WindowResult, error) {
	if userID == "" {
		return nil, usage.ErrUnauthorized
	}

	limits, err := s.userLimits(ctx, userID)
	if err != nil {
		return nil, err
	}
	devices, err := s.devices.ListByOwner(ctx, userID)
	if err != nil {
		return nil, wrapStore("list devices", err)
	}

	now := s.clock.Now().In(s.location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)

	ids := deviceIDs(devices)
	dailyTotal, err := s.windowTotal(ctx, ids, dayStart)
	if err != nil {
		return nil, err
	}
	monthlyTotal, err := s.windowTotal(ctx, ids, monthStart)
	if err != nil {
		return nil, err
	}

	// Window totals are reported raw; only messages format to 2 decimals.
	result := &usage.WindowResult{
		DailyUsage:    dailyTotal,
		MonthlyUsage:  monthlyTotal,
		Limits:        limits,
		Notifications: []usage.Notification{},
	}

	breaches := EvaluateThresholds(limits, dailyTotal, monthlyTotal)
	if len(breaches) == 0 {
		return result, nil
	}
	if s.renotify > 0 {
		breaches, err = s.suppressRecent(ctx, userID, breaches, now)
		if err != nil {
			return nil, err
		}
		if len(breaches) == 0 {
			return result, nil
		}
	}

	notifications := make([]usage.Notification, 0, len(breaches))
	for _, breach := range breaches {
		notifications = append(notifications, breach.Notification(userID, now))
	}
	if err := s.ledger.Append(ctx, userID, notifications); err != nil {
		return nil, wrapStore("append notifications", err)
	}
	for _, breach := range breaches {
		metrics.IncLimitBreach(strings.ToLower(breach.Period))
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, userID, notifications); err != nil {
			s.logger.Printf("usage: webhook delivery failed for user %s: %v", userID, err)
		}
	}

	result.Notifications = notifications
	return result, nil
}

// SetLimits stores the user's energy limits. Negative values are
// rejected; a nil period removes that period's limit.
func (s *Service) SetLimits(ctx context.Context, userID string, limits usage.Limits) (usage.Limits, error) {
	if userID == "" {
		return usage.Limits{}, usage.ErrUnauthorized
	}
	if limits.Daily != nil && *limits.Daily < 0 {
		return usage.Limits{}, fmt.Errorf("%w: daily limit must be non-negative", usage.ErrInvalidInput)
	}
	if limits.Monthly != nil && *limits.Monthly < 0 {
		return usage.Limits{}, fmt.Errorf("%w: monthly limit must be non-negative", usage.ErrInvalidInput)
	}

	err := s.limits.SetLimit(ctx, userID, accounts.EnergyLimit{Daily: limits.Daily, Monthly: limits.Monthly})
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return usage.Limits{}, usage.ErrNotFound
		}
		return usage.Limits{}, wrapStore("set limits", err)
	}
	return limits, nil
}

// ListNotifications returns the user's notifications, oldest first.
// Listing never mutates the ledger.
func (s *Service) ListNotifications(ctx context.Context, userID string) ([]usage.Notification, error) {
	if userID == "" {
		return nil, usage.ErrUnauthorized
	}
	notifications, err := s.ledger.ListAll(ctx, userID)
	if err != nil {
		return nil, wrapStore("list notifications", err)
	}
	if notifications == nil {
		notifications = []usage.Notification{}
	}
	return notifications, nil
}

// ClearNotifications removes all of the user's notifications.
func (s *Service) ClearNotifications(ctx context.Context, userID string) error {
	if userID == "" {
		return usage.ErrUnauthorized
	}
	if err := s.ledger.ClearAll(ctx, userID); err != nil {
		return wrapStore("clear notifications", err)
	}
	metrics.IncNotificationsCleared()
	return nil
}

func (s *Service) userLimits(ctx context.Context, userID string) (usage.Limits, error) {
	stored, err := s.limits.GetLimit(ctx, userID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return usage.Limits{}, usage.ErrNotFound
		}
		return usage.Limits{}, wrapStore("get limits", err)
	}
	if stored == nil {
		// The limit store reports an absent user with a nil result.
		return usage.Limits{}, usage.ErrNotFound
	}
	return usage.Limits{Daily: stored.Daily, Monthly: stored.Monthly}, nil
}

// windowTotal sums power over [start, now). The upper bound stays open
// so readings stored between the two window queries still count.
func (s *Service) windowTotal(ctx context.Context, deviceIDs []string, start time.Time) (float64, error) {
	if len(deviceIDs) == 0 {
		return 0, nil
	}
	readings, err := s.readings.ReadingsFor(ctx, deviceIDs, start, time.Time{})
	if err != nil {
		return 0, wrapStore("fetch readings", err)
	}
	return SumPower(readings), nil
}

// suppressRecent drops breaches whose period already has a ledger
// record newer than the renotify interval.
func (s *Service) suppressRecent(ctx context.Context, userID string, breaches []Breach, now time.Time) ([]Breach, error) {
	existing, err := s.ledger.ListAll(ctx, userID)
	if err != nil {
		return nil, wrapStore("list notifications", err)
	}
	cutoff := now.Add(-s.renotify)

	recent := make(map[string]bool, 2)
	for _, notification := range existing {
		if notification.Timestamp.Before(cutoff) {
			continue
		}
		for _, period := range []string{PeriodDaily, PeriodMonthly} {
			if strings.HasPrefix(notification.Message, period+" ") {
				recent[period] = true
			}
		}
	}

	var kept []Breach
	for _, breach := range breaches {
		if !recent[breach.Period] {
			kept = append(kept, breach)
		}
	}
	return kept, nil
}

func deviceIDs(devices []registry.Device) []string {
	ids := make([]string, 0, len(devices))
	for _, device := range devices {
		ids = append(ids, device.DeviceID)
	}
	return ids
}

func wrapStore(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", usage.ErrStoreUnavailable, op, err)
}
