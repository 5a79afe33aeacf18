package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/littlelittle-hq/newswire/internal/aggregate"
	"github.com/littlelittle-hq/newswire/internal/config"
	"github.com/littlelittle-hq/newswire/internal/feeds"
	"github.com/littlelittle-hq/newswire/internal/logger"
	"github.com/littlelittle-hq/newswire/internal/server"
	"github.com/littlelittle-hq/newswire/internal/store"
	"github.com/littlelittle-hq/newswire/pkg/httpclient"
	"github.com/littlelittle-hq/newswire/pkg/publishers"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	registry, err := feeds.LoadRegistry(cfg.FeedsFile)
	if err != nil {
		log.Fatalf("load feed registry: %v", err)
	}

	client := httpclient.NewRestyClient(cfg.FetchTimeout,
		httpclient.WithRetries(cfg.FetchAttempts, cfg.FetchBackoff))
	fetcher := feeds.NewFetcher(client, logg, cfg.MaxItemsPerFeed)

	var st *store.Store
	if cfg.StorePath != "" {
		st, err = store.Open(cfg.StorePath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer st.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pubs []publishers.Publisher
	if cfg.PublishersFile != "" {
		pubReg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			log.Fatalf("load publishers: %v", err)
		}
		pubs, err = publishers.BuildAll(ctx, publishers.DefaultRegistry(), pubReg.Enabled(), logg)
		if err != nil {
			log.Fatalf("build publishers: %v", err)
		}
	}

	var recorder aggregate.FetchRecorder
	if st != nil {
		recorder = st
	}
	agg := aggregate.New(fetcher, registry, recorder, logg)

	srv := server.New(agg, st, pubs, logg)
	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	go func() {
		logg.InfoObj("server listening", "server_start", map[string]any{
			"addr":  cfg.ListenAddr,
			"feeds": len(registry),
		})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.ErrorObj("server stopped", "server_error", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logg.WarnObj("shutdown incomplete", "server_shutdown_error", map[string]any{"error": err.Error()})
	}
}
