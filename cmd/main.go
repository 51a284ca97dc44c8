package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"utang-ledger/internal/clients"
	"utang-ledger/internal/config"
	"utang-ledger/internal/ledger"
	"utang-ledger/internal/repository"
	"utang-ledger/internal/service"
	"utang-ledger/internal/transport/auth"
	"utang-ledger/internal/transport/rest"
	"utang-ledger/internal/transport/websocket"
	"utang-ledger/pkg/database/postgres"
	"utang-ledger/pkg/database/sqlite"
	"utang-ledger/pkg/logging"
)

func main() {
	envErr := godotenv.Load()

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	logger := logging.Setup(cfg.LogLevel)
	if envErr != nil {
		logger.Info("no .env file found, using system env or defaults")
	}

	order, _ := ledger.ParseAllocationOrder(cfg.Ledger.AllocationOrder)
	engine := ledger.NewEngine(
		ledger.WithAllocationOrder(order),
		ledger.WithLogger(logger),
	)

	store, resolver, closeStore := mustInitLedger(ctx, cfg, logger)
	defer closeStore()

	redisClient := mustInitRedis(cfg.Redis)
	defer redisClient.Close()

	var (
		sink          service.FileSink
		storageClient *clients.StorageClient
	)
	switch cfg.StorageDriver {
	case "s3":
		sink = mustInitS3(ctx, cfg.S3)
	default:
		var err error
		storageClient, err = clients.NewLocalStorage(cfg.ExportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
		if err != nil {
			log.Fatalf("storage init error: %v", err)
		}
		sink = storageClient
	}

	wsHub := websocket.NewHub(logger)
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	ledgerSvc := service.NewLedgerService(store, engine, wsClient, logger)
	exportSvc := service.NewExportService(store, engine, redisClient, sink, wsClient,
		time.Duration(cfg.ExportTTLMinutes)*time.Minute, logger)
	backupSvc := service.NewBackupService(store, sink, logger)

	handler := rest.NewHandler(ledgerSvc, exportSvc, backupSvc, logger)
	router := handler.InitRouterWithAuth(auth.BearerMiddleware(resolver, logger))

	// protected websocket endpoint; browsers pass the token as ?token=
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.GetUser(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		logger.Debug("websocket connected", "user", user)
		wsHub.HandleWebSocket(w, r, user)
	})

	// public root router; generated files stay reachable without a token
	root := chi.NewRouter()
	if storageClient != nil {
		root.Get(storageClient.PublicPrefix+"/{file}", storageClient.FileHandler())
	}
	root.Mount("/", router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(root),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "backend", cfg.Ledger.Backend, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	if storageClient != nil {
		go runCleanup(ctx, storageClient, time.Duration(cfg.FileRetentionMins)*time.Minute, logger)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}

		// stops the websocket hub and the cleaner
		cancel()

		// running exports still write to the store, cache and sink
		exportSvc.Wait()

		logger.Info("shutdown complete")
	}
}

// mustInitLedger opens the configured record store and the token resolver that goes with it.
// SQL backends keep tokens in access_tokens; configured static tokens are registered there.
func mustInitLedger(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (service.LedgerStore, auth.TokenResolver, func()) {
	if len(cfg.Tokens) == 0 && cfg.Ledger.Backend == "csv" {
		logger.Warn("LEDGER_TOKENS is empty, every request will be rejected")
	}

	var (
		db      *sql.DB
		dialect repository.Dialect
		closeDB func()
		err     error
	)
	switch cfg.Ledger.Backend {
	case "postgres":
		db = mustInitPostgres(ctx, cfg.Postgres)
		dialect = repository.Postgres
		closeDB = func() { postgres.Close(db) }
	case "sqlite":
		db, err = sqlite.NewSQLiteConnection(cfg.Ledger.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite init error: %v", err)
		}
		dialect = repository.SQLite
		closeDB = func() { sqlite.Close(db) }
	default:
		store, err := repository.NewCSVLedger(cfg.Ledger.DataDir)
		if err != nil {
			log.Fatalf("csv ledger init error: %v", err)
		}
		return store, auth.StaticTokens(cfg.Tokens), func() {}
	}

	if err := repository.Migrate(ctx, db, dialect); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	tokens := repository.NewTokenRepository(db, dialect)
	for token, user := range cfg.Tokens {
		if err := tokens.Register(ctx, token, user, nil); err != nil {
			log.Fatalf("register token for %s: %v", user, err)
		}
	}

	return repository.NewSQLLedger(db, dialect), tokens, closeDB
}

func mustInitPostgres(ctx context.Context, cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(ctx, postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

func mustInitS3(ctx context.Context, cfg config.S3Config) *clients.S3Client {
	client, err := clients.NewS3Client(ctx, clients.S3Config{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Bucket:          cfg.Bucket,
		UseSSL:          cfg.UseSSL,
		Region:          cfg.Region,
		Prefix:          cfg.Prefix,
		URLTTL:          time.Duration(cfg.URLTTLHours) * time.Hour,
	})
	if err != nil {
		log.Fatalf("s3 init error: %v", err)
	}
	return client
}

// runCleanup deletes generated files older than retention.
func runCleanup(ctx context.Context, storage *clients.StorageClient, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := storage.CleanupOlderThan(retention); err != nil {
				logger.Error("storage cleanup error", "err", err)
			}
		}
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
