package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wangkuke/MapConnect/internal/api"
	"github.com/wangkuke/MapConnect/internal/clock"
	"github.com/wangkuke/MapConnect/internal/config"
	"github.com/wangkuke/MapConnect/internal/db"
	"github.com/wangkuke/MapConnect/internal/logging"
	"github.com/wangkuke/MapConnect/internal/marker"
	"github.com/wangkuke/MapConnect/internal/sweeper"
	"github.com/wangkuke/MapConnect/repository"
)

func main() {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		boot := logging.L()
		boot.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.L()
	log.Info().Stringer("config", cfg).Msg("configuration loaded")

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Error().Err(err).Msg("close db")
		}
	}()

	users := repository.NewUserRepository(d)
	markers := repository.NewMarkerRepository(d)
	clk := clock.System{}
	manager := marker.NewManager(markers, users, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.New(manager, cfg.Sweep.Interval).Run(ctx)

	router := api.NewRouter(cfg.Auth.JWTSecret, manager, users, clk)
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()
	log.Info().Str("addr", cfg.HTTP.Address).Msg("http server listening")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
