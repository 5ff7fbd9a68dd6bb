package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gudangku/internal/audit"
	"gudangku/internal/auth"
	"gudangku/internal/config"
	"gudangku/internal/docstore"
	"gudangku/internal/httpapi"
	"gudangku/internal/ledger"
	"gudangku/internal/logging"
	"gudangku/internal/service"
	"gudangku/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	docs, closers := selectDocstore(ctx, cfg, log)

	ldg, err := ledger.New(ctx, docs, log)
	if err != nil {
		log.Error("load ledger", "error", err)
		os.Exit(1)
	}
	trail, err := audit.New(ctx, docs, log)
	if err != nil {
		log.Error("load audit trail", "error", err)
		os.Exit(1)
	}
	userStore, err := users.New(ctx, docs, log)
	if err != nil {
		log.Error("load users", "error", err)
		os.Exit(1)
	}
	authMgr, err := auth.NewManager(ctx, userStore, docs, cfg.AuthSecret,
		time.Duration(cfg.AccessTokenTTLMinute)*time.Minute, log)
	if err != nil {
		log.Error("load auth manager", "error", err)
		os.Exit(1)
	}

	ldg.OnLowStock(func(name string, remaining int) {
		log.Warn("low stock", "item", name, "remaining", remaining)
	})
	authMgr.OnThaw(func() {
		log.Info("login re-enabled after freeze")
	})

	svc := service.New(ldg, trail, userStore, log)
	api := httpapi.New(svc, authMgr, cfg.AllowedOrigin, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("ledger backend listening", "addr", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	// Stores persist under their locks; closing them waits for any
	// in-flight save before the document store goes away.
	closers = append([]func() error{authMgr.Close, ldg.Close, trail.Close, userStore.Close}, closers...)
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error("close error", "error", err)
		}
	}

	log.Info("server stopped")
}

// selectDocstore picks the persistence driver: Postgres when
// DATABASE_URL is set, otherwise Redis when REDIS_ADDR is set and
// reachable, otherwise JSON files in the data directory.
func selectDocstore(ctx context.Context, cfg config.Config, log *slog.Logger) (docstore.Store, []func() error) {
	var closers []func() error

	if cfg.DatabaseURL != "" {
		pg, err := docstore.NewPostgresStore(cfg.DatabaseURL, log)
		if err != nil {
			log.Error("postgres unavailable and DATABASE_URL is set, refusing file fallback", "error", err)
			os.Exit(1)
		}
		log.Info("documents: postgres")
		return pg, append(closers, pg.Close)
	}

	if cfg.RedisAddr != "" {
		rs, err := docstore.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Warn("redis unavailable, using file documents", "error", err)
		} else {
			log.Info("documents: redis")
			return rs, append(closers, rs.Close)
		}
	}

	fs, err := docstore.NewFileStore(cfg.DataDir, log)
	if err != nil {
		log.Error("file documents unavailable", "error", err)
		os.Exit(1)
	}
	log.Info("documents: file", "dir", cfg.DataDir)
	return fs, append(closers, fs.Close)
}
