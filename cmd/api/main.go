package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ovaphlow/pitchfork/service-directory/internal/auth"
	"github.com/ovaphlow/pitchfork/service-directory/internal/language"
	langrepo "github.com/ovaphlow/pitchfork/service-directory/internal/language/repo"
	"github.com/ovaphlow/pitchfork/service-directory/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-directory/internal/router"
	"github.com/ovaphlow/pitchfork/service-directory/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-directory/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/utilities"
)

func main() {
	// best effort: a missing .env falls back to the real environment
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-directory")

	cfg := database.ConfigFromEnv()
	if cfg.Migrate {
		if err := database.RunMigrations(cfg.DSN); err != nil {
			sugar.Fatalw("migrate db", "err", err)
		}
		sugar.Info("schema migrations applied")
	}
	db, err := database.ConnectX(cfg)
	if err != nil {
		sugar.Fatalw("db connect", "err", err)
	}
	defer db.Close()

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		sugar.Fatalw("auth config", "err", err)
	}
	if authCfg.Ephemeral {
		sugar.Warn("JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}
	tokens := auth.NewTokenService(authCfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	users := user.NewUserService(
		userrepo.NewUserRepo(db),
		userrepo.NewHistoryRepo(db),
		user.BcryptHasher{Cost: utilities.EnvInt("BCRYPT_COST", 12)},
		tokens,
	)

	handler := router.RegisterRoutes(router.Deps{
		Logger:     sugar,
		Languages:  language.NewHandler(langrepo.NewLanguageRepo(db), sugar),
		Users:      user.NewHandler(users, collector, sugar),
		Tokens:     tokens,
		Metrics:    collector,
		Gatherer:   reg,
		TestRoutes: utilities.EnvBool("ENABLE_TEST_ROUTES"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              utilities.EnvString("HTTP_ADDR", "0.0.0.0:8431"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("http server failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnw("http server shutdown failed", "err", err)
	}
	sugar.Info("goodbye")
}
