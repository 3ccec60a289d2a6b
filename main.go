package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	accountsapp "energymeter-cloud/internal/accounts/application"
	accountsrepo "energymeter-cloud/internal/accounts/infrastructure/postgres"
	accountshttp "energymeter-cloud/internal/accounts/interfaces/http"
	"energymeter-cloud/internal/audit"
	"energymeter-cloud/internal/auth"
	"energymeter-cloud/internal/observability/metrics"
	registryapp "energymeter-cloud/internal/registry/application"
	registryrepo "energymeter-cloud/internal/registry/infrastructure/postgres"
	registryhttp "energymeter-cloud/internal/registry/interfaces/http"
	telemetryrepo "energymeter-cloud/internal/telemetry/infrastructure/postgres"
	telemetryhttp "energymeter-cloud/internal/telemetry/interfaces/http"
	usageapp "energymeter-cloud/internal/usage/application"
	usagerepo "energymeter-cloud/internal/usage/infrastructure/postgres"
	usagehttp "energymeter-cloud/internal/usage/interfaces/http"
	usagenotify "energymeter-cloud/internal/usage/notify"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	userRepo := accountsrepo.NewUserRepository(db)
	accountsService, err := accountsapp.NewService(userRepo, []byte(cfg.JWTSecret), accountsapp.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		logger.Fatalf("accounts service error: %v", err)
	}
	accountsHandler, err := accountshttp.NewHandler(accountsService)
	if err != nil {
		logger.Fatalf("accounts handler error: %v", err)
	}

	deviceRepo := registryrepo.NewDeviceRepository(db)
	registryService, err := registryapp.NewService(deviceRepo)
	if err != nil {
		logger.Fatalf("registry service error: %v", err)
	}
	registryHandler, err := registryhttp.NewHandler(registryService, auditRepo)
	if err != nil {
		logger.Fatalf("registry handler error: %v", err)
	}

	readingRepo := telemetryrepo.NewReadingRepository(db)
	readingQuery := telemetryrepo.NewReadingQuery(db)
	ingestHandler, err := telemetryhttp.NewIngestHandler(readingRepo, deviceRepo, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	readingsHandler, err := telemetryhttp.NewReadingsHandler(readingQuery, deviceRepo, logger)
	if err != nil {
		logger.Fatalf("readings handler error: %v", err)
	}

	notifyCfg, err := usageapp.LoadNotifyConfig()
	if err != nil {
		logger.Fatalf("notify config error: %v", err)
	}
	usageOpts := []usageapp.Option{
		usageapp.WithLocation(notifyCfg.Timezone),
		usageapp.WithLogger(logger),
	}
	if notifyCfg.MinRenotifyInterval > 0 {
		usageOpts = append(usageOpts, usageapp.WithRenotifyInterval(notifyCfg.MinRenotifyInterval))
	}
	if notifyCfg.WebhookURL != "" {
		usageOpts = append(usageOpts, usageapp.WithNotifier(usagenotify.NewWebhookNotifier(notifyCfg.WebhookURL)))
	}
	notificationRepo := usagerepo.NewNotificationRepository(db)
	usageService, err := usageapp.NewService(deviceRepo, readingQuery, userRepo, notificationRepo, usageOpts...)
	if err != nil {
		logger.Fatalf("usage service error: %v", err)
	}
	usageHandler, err := usagehttp.NewHandler(usageService, auditRepo)
	if err != nil {
		logger.Fatalf("usage handler error: %v", err)
	}
	reportHandler, err := usagehttp.NewReportHandler(usageService)
	if err != nil {
		logger.Fatalf("usage report handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{
		"/healthz",
		"/metrics",
		"/api/auth/signup",
		"/api/auth/login",
		"/api/energy-data",
	}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewAPIKeyMiddleware([]byte(cfg.IngestAPIKey))

	mux := http.NewServeMux()
	mux.Handle("/api/auth/", accountsHandler)
	mux.Handle("/api/devices", registryHandler)
	mux.Handle("/api/devices/", registryHandler)
	mux.Handle("/api/energy-data", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/energy-data/device/", readingsHandler)
	mux.Handle("/api/energy-data/user/total-usage", reportHandler)
	mux.Handle("/api/energy-data/user/total-usage/", reportHandler)
	mux.Handle("/api/energy-limits/", usageHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL  string
	HTTPAddr     string
	JWTSecret    string
	IngestAPIKey string
	TokenTTL     time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:  getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:    getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestAPIKey: getenvDefault("INGEST_API_KEY", ""),
		TokenTTL:     getenvDuration("AUTH_TOKEN_TTL", time.Hour),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	if cfg.IngestAPIKey == "" {
		log.Print("INGEST_API_KEY not set; reading ingest disabled")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
