package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/petewilburn/ibkr-options-chains/src/eventconsumers"
	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
	"github.com/petewilburn/ibkr-options-chains/src/eventpubsub"
	"github.com/petewilburn/ibkr-options-chains/src/eventservices"
	"github.com/petewilburn/ibkr-options-chains/src/handler"
	"github.com/petewilburn/ibkr-options-chains/src/logger"
	"github.com/petewilburn/ibkr-options-chains/src/utils"
	"github.com/petewilburn/ibkr-options-chains/src/worker"
)

const defaultGatewayURL = "https://localhost:5001"

func refreshChains(ctx context.Context, client *eventservices.GatewayClient, config *eventmodels.OptionsConfigYAML, cache *eventservices.ChainCache) {
	for _, job := range config.Jobs {
		params := eventservices.FetchOptionChainParams{
			Symbol:     eventmodels.NewStockSymbol(job.Symbol),
			Exchange:   job.Exchange,
			PriceRange: job.PriceRange,
			OptionType: job.OptionType(),
			Month:      job.Month,
		}

		chain, err := eventservices.FetchOptionChain(ctx, client, params)
		if err != nil {
			log.Errorf("refreshChains: failed to fetch chain for %s: %v", job.Symbol, err)
			continue
		}

		cache.Put(chain)
	}
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	goEnv := os.Getenv("GO_ENV")
	if err := utils.InitEnvironmentVariables(goEnv); err != nil {
		log.Fatalf("error loading environment variables: %v", err)
	}

	eventpubsub.Init()

	gatewayURL := os.Getenv("IBKR_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = defaultGatewayURL
	}

	timeout := 30 * time.Second
	if timeoutStr := os.Getenv("IBKR_GATEWAY_TIMEOUT"); timeoutStr != "" {
		parsed, err := time.ParseDuration(timeoutStr)
		if err != nil {
			log.Fatalf("invalid IBKR_GATEWAY_TIMEOUT: %v", err)
		}

		timeout = parsed
	}

	configPath := os.Getenv("OPTIONS_CONFIG")
	if configPath == "" {
		configPath = "options.yaml"
	}

	config, err := eventmodels.LoadOptionsConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load options config: %v", err)
	}

	fetchInterval := 5 * time.Minute
	if intervalStr := os.Getenv("FETCH_INTERVAL"); intervalStr != "" {
		parsed, err := time.ParseDuration(intervalStr)
		if err != nil {
			log.Fatalf("invalid FETCH_INTERVAL: %v", err)
		}

		fetchInterval = parsed
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := eventservices.NewGatewayClient(gatewayURL, timeout)
	cache := eventservices.NewChainCache()

	// setup consumers
	tickCache := eventconsumers.NewTickCacheConsumer()
	if err := tickCache.Start(); err != nil {
		log.Fatalf("failed to start tick cache consumer: %v", err)
	}

	// setup live datafeed, if configured
	wsURL := os.Getenv("IBKR_WS_URL")
	streamConID := os.Getenv("IBKR_STREAM_CONID")
	if wsURL != "" && streamConID != "" {
		datafeed := worker.NewIBDatafeedWorker(wsURL, streamConID)
		if err := datafeed.Start(ctx); err != nil {
			log.Fatalf("failed to start datafeed worker: %v", err)
		}
	}

	go func() {
		refreshChains(ctx, client, config, cache)

		ticker := time.NewTicker(fetchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshChains(ctx, client, config, cache)
			}
		}
	}()

	// setup router
	router := mux.NewRouter()
	handler.SetupHandler(router.PathPrefix("/chains").Subrouter(), cache, tickCache)

	// Register pprof handlers
	pprofRouter := router.PathPrefix("/debug/pprof").Subrouter()
	pprofRouter.HandleFunc("/", http.HandlerFunc(pprof.Index))
	pprofRouter.HandleFunc("/cmdline", http.HandlerFunc(pprof.Cmdline))
	pprofRouter.HandleFunc("/profile", http.HandlerFunc(pprof.Profile))
	pprofRouter.HandleFunc("/symbol", http.HandlerFunc(pprof.Symbol))
	pprofRouter.HandleFunc("/trace", http.HandlerFunc(pprof.Trace))
	pprofRouter.Handle("/goroutine", pprof.Handler("goroutine"))
	pprofRouter.Handle("/heap", pprof.Handler("heap"))

	port := os.Getenv("PORT")
	if len(port) == 0 {
		port = "3000"
	}

	srv := &http.Server{
		Handler: router,
		Addr:    fmt.Sprintf(":%s", port),
	}

	go func() {
		log.Infof("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				log.Fatalf("http: failed to listen and serve: %v", err)
			}
		}
	}()

	// Create channel for shutdown signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	<-stop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http: failed to shutdown: %v", err)
	}

	log.Info("shutdown complete")
}
