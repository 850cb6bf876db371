package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pesio-ai/be-hr-recruitment/internal/client"
	"github.com/pesio-ai/be-hr-recruitment/internal/handler"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/config"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/database"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/logger"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/middleware"
	"github.com/pesio-ai/be-hr-recruitment/internal/repository"
	"github.com/pesio-ai/be-hr-recruitment/internal/service"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Str("store", cfg.Store.Driver).
		Msg("Starting HR Recruitment Workflow Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	var (
		store repository.EntityStore
		audit repository.AuditRepository
	)
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.New(ctx, database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			Database:    cfg.Database.Database,
			SSLMode:     cfg.Database.SSLMode,
			MaxConns:    cfg.Database.MaxConns,
			MinConns:    cfg.Database.MinConns,
			MaxConnTime: cfg.Database.MaxConnTime,
			MaxIdleTime: cfg.Database.MaxIdleTime,
			HealthCheck: cfg.Database.HealthCheck,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		log.Info().Msg("Database connection established")

		store = repository.NewEntityRepository(db)
		audit = repository.NewApprovalAuditRepository(db)
	default:
		store = repository.NewMemoryStore()
		audit = repository.NewMemoryAuditRepository()
		log.Warn().Msg("Using in-memory store; data is lost on restart")
	}

	// Initialize event publisher (optional)
	var conn *nats.Conn
	if cfg.NATS.URL != "" {
		conn, err = client.Connect(cfg.NATS.URL, cfg.Service.Name)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable; workflow events disabled")
		} else {
			defer conn.Drain()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
		}
	}
	var publisher client.Publisher
	if conn != nil {
		publisher = conn
	}
	events := client.NewEventPublisher(publisher, cfg.NATS.SubjectPrefix, log.Logger)

	// Initialize services
	roles := workflow.DefaultRoleTable().WithOverrides(
		cfg.Roles.First, cfg.Roles.Last, cfg.Roles.Default,
		cfg.Roles.Departments, cfg.Roles.Sections,
	)
	workflowService := service.NewWorkflowService(
		store,
		audit,
		workflow.DefaultPolicies(roles),
		events,
		service.Config{DefaultActor: cfg.Service.DefaultActor},
		log,
	)

	// Setup HTTP routes
	mux := http.NewServeMux()
	handler.NewHTTPHandler(workflowService, log).RegisterRoutes(mux)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.RequestTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLoggingInterceptor(log.Logger)))
	handler.RegisterWorkflowServer(grpcServer, handler.NewGRPCHandler(workflowService, log.Logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	go func() {
		log.Info().Int("port", cfg.GRPC.Port).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error().Err(err).Msg("gRPC server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()

	log.Info().Msg("Server stopped")
}
