package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	checkAvailabilityHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/check_availability"
	createAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/create_appointment"
	deleteAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/delete_appointment"
	getAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/get_appointment"
	getSchedulesHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/get_schedules"
	listAppointmentsHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/list_appointments"
	replaceSchedulesHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/replace_schedules"
	updateAppointmentHandler "github.com/m04kA/SMC-AgendaService/internal/api/handlers/update_appointment"
	"github.com/m04kA/SMC-AgendaService/internal/api/middleware"
	"github.com/m04kA/SMC-AgendaService/internal/audit"
	"github.com/m04kA/SMC-AgendaService/internal/config"
	"github.com/m04kA/SMC-AgendaService/internal/infra/cache/availability"
	applogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/applog"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/customer"
	therapistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/therapist"
	"github.com/m04kA/SMC-AgendaService/internal/integrations/events"
	appointmentsService "github.com/m04kA/SMC-AgendaService/internal/service/appointments"
	notifierService "github.com/m04kA/SMC-AgendaService/internal/service/notifier"
	schedulesService "github.com/m04kA/SMC-AgendaService/internal/service/schedules"
	checkAvailabilityUC "github.com/m04kA/SMC-AgendaService/internal/usecase/check_availability"
	createAppointmentUC "github.com/m04kA/SMC-AgendaService/internal/usecase/create_appointment"
	findTherapistUC "github.com/m04kA/SMC-AgendaService/internal/usecase/find_therapist"
	updateAppointmentUC "github.com/m04kA/SMC-AgendaService/internal/usecase/update_appointment"
	"github.com/m04kA/SMC-AgendaService/migrations"
	"github.com/m04kA/SMC-AgendaService/pkg/businesstime"
	"github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
	"github.com/m04kA/SMC-AgendaService/pkg/metrics"
	"github.com/m04kA/SMC-AgendaService/pkg/txmanager"
)

// availabilityCache общий интерфейс кэша для агрегатора и notifier
type availabilityCache interface {
	checkAvailabilityUC.Cache
	notifierService.CacheInvalidator
}

// eventPublisher Kafka publisher или его no-op заглушка
type eventPublisher interface {
	notifierService.EventPublisher
	Close() error
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AgendaService...")
	log.Info("Configuration loaded from %s", configPath)

	zone, err := businesstime.NewZone(cfg.Business.Timezone)
	if err != nil {
		log.Fatal("Invalid business timezone: %v", err)
	}
	bounds, err := cfg.Business.DayBounds()
	if err != nil {
		log.Fatal("Invalid business day bounds: %v", err)
	}
	log.Info("Business timezone %s, day bounds %s", zone.Name(), bounds)

	// nil коллектор ничего не записывает
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.DSN()); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
		log.Info("Database migrations applied")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	stopMetricsCh := make(chan struct{})
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	therapistRepository := therapistRepo.NewRepository(wrappedDB)
	catalogRepository := catalogRepo.NewRepository(wrappedDB)
	customerRepository := customerRepo.NewRepository(wrappedDB)
	applogRepository := applogRepo.NewRepository(wrappedDB)

	var (
		cache       availabilityCache = availability.Noop{}
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis ping failed, availability is computed without cache until it recovers: %v", err)
		}
		cancel()
		cache = availability.New(redisClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second, metricsCollector)
		log.Info("Availability cache enabled (redis=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTLSeconds)
	}

	var publisher eventPublisher = events.Noop{}
	if cfg.Kafka.Enabled {
		publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		log.Info("Appointment events enabled (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	auditDispatcher := audit.NewDispatcher(applogRepository, cfg.Audit.QueueSize, log, metricsCollector)

	notifier := notifierService.NewService(auditDispatcher, publisher, cache, zone, metricsCollector, log)

	appointmentsSvc := appointmentsService.NewService(appointmentRepository, txMgr, notifier, zone, log)
	schedulesSvc := schedulesService.NewService(therapistRepository, txMgr, notifier, log)

	findTherapistUseCase := findTherapistUC.NewUseCase(therapistRepository, appointmentRepository, zone, bounds, log)
	checkAvailabilityUseCase := checkAvailabilityUC.NewUseCase(
		catalogRepository,
		therapistRepository,
		appointmentRepository,
		cache,
		zone,
		bounds,
		log,
	)
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		catalogRepository,
		customerRepository,
		therapistRepository,
		appointmentRepository,
		findTherapistUseCase,
		txMgr,
		notifier,
		zone,
		metricsCollector,
		log,
	)
	updateAppointmentUseCase := updateAppointmentUC.NewUseCase(
		catalogRepository,
		customerRepository,
		therapistRepository,
		appointmentRepository,
		txMgr,
		notifier,
		zone,
		metricsCollector,
		log,
	)

	checkAvailability := checkAvailabilityHandler.NewHandler(checkAvailabilityUseCase, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentsSvc, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	updateAppointment := updateAppointmentHandler.NewHandler(updateAppointmentUseCase, log)
	deleteAppointment := deleteAppointmentHandler.NewHandler(appointmentsSvc, log)
	getSchedules := getSchedulesHandler.NewHandler(schedulesSvc, log)
	replaceSchedules := replaceSchedulesHandler.NewHandler(schedulesSvc, log)

	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := wrappedDB.PingContext(ctx); err != nil {
			log.Warn("GET /health - Database unavailable: %v", err)
			handlers.RespondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Публичные маршруты
	api.HandleFunc("/appointments/availability", checkAvailability.Handle).Methods(http.MethodGet)

	// Защищенные маршруты (требуют X-User-ID header)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/appointments", listAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}", updateAppointment.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{appointmentId}", deleteAppointment.Handle).Methods(http.MethodDelete)

	protected.HandleFunc("/therapists/{therapistId}/schedules", getSchedules.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/therapists/{therapistId}/schedules", replaceSchedules.Handle).Methods(http.MethodPut)

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дописываем аудит до закрытия БД
	if err := auditDispatcher.Close(shutdownCtx); err != nil {
		log.Error("Audit dispatcher did not drain: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher: %v", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
