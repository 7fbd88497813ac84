package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/config"
	"auction-engine/internal/metrics"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/internal/ticker"
	"auction-engine/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		utils.Fatal("invalid configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	repo := repository.NewMemoryRepo()
	biddingSvc := bidding.NewBiddingService(repo, bidding.WithMetrics(metrics.NewCollector(reg)))

	if cfg.SeedDemo {
		seedDemoAuctions(biddingSvc)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ticker.NewHub(biddingSvc, cfg.TickInterval, cfg.UpcomingEvery)
	go hub.Run(ctx)

	limiter := server.NewBidRateLimiter(cfg.BidRateLimit, cfg.BidRateBurst)
	go pruneLimiters(ctx, limiter)

	router := server.SetupRouter(biddingSvc, hub, limiter, reg)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
		}
	}()

	utils.Info("starting auction server", map[string]any{"addr": cfg.ListenAddr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
	}
	utils.Info("auction server stopped", nil)
}

// pruneLimiters forgets actors that have not bid for a while
func pruneLimiters(ctx context.Context, limiter *server.BidRateLimiter) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			limiter.Prune(10 * time.Minute)
		}
	}
}
