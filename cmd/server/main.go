
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"harborview-ssg/internal/config"
	"harborview-ssg/internal/routes"
	"harborview-ssg/pkg/logger"
)

func main() {
	l, err := logger.New(os.Getenv("SSG_VERBOSE") != "")
	if err != nil {
		panic(err)
	}
	defer l.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		l.Errorf("config: %v", err)
		os.Exit(1)
	}
	table := routes.Default()
	if cfg.RoutesFile != "" {
		if table, err = routes.Load(cfg.RoutesFile); err != nil {
			l.Errorf("routes: %v", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(cfg, table, l),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("serving %s (%s) on %s", cfg.OutDir, cfg.Environment, addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}
