package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"gridmarket/internal/auth"
	bookingapp "gridmarket/internal/booking/application"
	bookingrepo "gridmarket/internal/booking/infrastructure/postgres"
	bookinghttp "gridmarket/internal/booking/interfaces/http"
	ledgerrepo "gridmarket/internal/ledger/infrastructure/postgres"
	"gridmarket/internal/locking"
	marketapp "gridmarket/internal/market/application"
	marketrepo "gridmarket/internal/market/infrastructure/postgres"
	markethttp "gridmarket/internal/market/interfaces/http"
	"gridmarket/internal/observability/metrics"
	reportingapp "gridmarket/internal/reporting/application"
	reportinghttp "gridmarket/internal/reporting/interfaces/http"

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

	userRepo := auth.NewPostgresUserRepository(db)
	accountRepo := ledgerrepo.NewAccountRepository(db)
	producerRepo := marketrepo.NewProducerRepository(db)
	slotRepo := marketrepo.NewSlotRepository(db)
	reservationRepo := bookingrepo.NewReservationRepository(db)

	locks := locking.NewManager()

	authService, err := auth.NewService(userRepo, accountRepo, []byte(cfg.JWTSecret), nil)
	if err != nil {
		logger.Fatalf("auth service error: %v", err)
	}
	producerService, err := marketapp.NewProducerService(producerRepo, slotRepo, nil)
	if err != nil {
		logger.Fatalf("producer service error: %v", err)
	}
	bookingService, err := bookingapp.NewBookingService(producerRepo, slotRepo, reservationRepo, accountRepo, locks, nil)
	if err != nil {
		logger.Fatalf("booking service error: %v", err)
	}
	modificationService, err := bookingapp.NewModificationService(slotRepo, reservationRepo, accountRepo, locks, nil)
	if err != nil {
		logger.Fatalf("modification service error: %v", err)
	}
	rationingService, err := bookingapp.NewRationingService(slotRepo, reservationRepo, accountRepo, locks)
	if err != nil {
		logger.Fatalf("rationing service error: %v", err)
	}
	reportingService, err := reportingapp.NewService(producerRepo, slotRepo, reservationRepo)
	if err != nil {
		logger.Fatalf("reporting service error: %v", err)
	}

	exportCfg, err := reportingapp.LoadExportConfig()
	if err != nil {
		logger.Fatalf("export config error: %v", err)
	}

	authHandler, err := auth.NewHandler(authService)
	if err != nil {
		logger.Fatalf("auth handler error: %v", err)
	}
	bookingHandler, err := bookinghttp.NewHandler(bookingService, modificationService)
	if err != nil {
		logger.Fatalf("booking handler error: %v", err)
	}
	marketHandler, err := markethttp.NewHandler(producerService, rationingService)
	if err != nil {
		logger.Fatalf("market handler error: %v", err)
	}
	reportingHandler, err := reportinghttp.NewHandler(reportingService, exportCfg)
	if err != nil {
		logger.Fatalf("reporting handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/api/v1/auth/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/auth/register", authHandler)
	mux.Handle("/api/v1/auth/login", authHandler)
	mux.Handle("/api/v1/reservations", bookingHandler)
	mux.Handle("/api/v1/purchases", reportingHandler)
	mux.Handle("/api/v1/carbon", reportingHandler)
	mux.Handle("/api/v1/producer/profile", marketHandler)
	mux.Handle("/api/v1/producer/capacities", marketHandler)
	mux.Handle("/api/v1/producer/prices", marketHandler)
	mux.Handle("/api/v1/producer/ration", marketHandler)
	mux.Handle("/api/v1/producer/occupancy", reportingHandler)
	mux.Handle("/api/v1/producer/earnings", reportingHandler)
	mux.Handle("/api/v1/producer/earnings/export", reportingHandler)
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
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
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

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		metrics.IncHTTPRequest(r.Method, resp.status)
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
