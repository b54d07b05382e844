package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"signalscan/src/config"
	"signalscan/src/feeds"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/network"
	"signalscan/src/scanners"
	"signalscan/src/server"
	"signalscan/src/utils"
	"signalscan/src/vault"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 1. Setup logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	appLogger := logger.NewLogger(cfg.Name)

	// 2. Setup vault
	store, err := vault.NewStore(cfg.Config, logger.NewLogger("Vault"))
	if err != nil {
		appLogger.Critical("Failed to open vault: %v", err)
	}
	defer store.Close()

	// 3. Shared infrastructure
	netMgr := network.NewManager(cfg.Config, logger.NewLogger("Network"))
	sessions := utils.NewMarketSessions()

	// 4. Feeds
	universe := feeds.NewYahooUniverseSource(cfg.Config, netMgr, logger.NewLogger("Universe"))
	alpacaStream := feeds.NewAlpacaStream(cfg.Feeds.Alpaca, logger.NewLogger("AlpacaStream"))
	alpacaQuotes := feeds.NewAlpacaQuoteClient(cfg.Feeds.Alpaca, netMgr, logger.NewLogger("AlpacaQuotes"))
	tradierStream := feeds.NewTradierStream(cfg.Feeds.Tradier, netMgr, logger.NewLogger("TradierStream"))
	newsStream := feeds.NewAlpacaNewsStream(cfg.Feeds.Alpaca, logger.NewLogger("NewsStream"))
	newsBackfill := feeds.NewAlpacaNewsClient(cfg.Feeds.Alpaca, netMgr, logger.NewLogger("NewsBackfill"))
	haltFeed := feeds.NewNasdaqHaltFeed(cfg.Feeds.Halts, netMgr, logger.NewLogger("HaltFeed"))

	var providers []interfaces.NewsProvider
	for _, pcfg := range cfg.Feeds.News.Providers {
		p, err := feeds.NewNewsProvider(pcfg, netMgr, logger.NewLogger("NewsProvider"))
		if err != nil {
			appLogger.Critical("Failed to build news provider: %v", err)
		}
		providers = append(providers, p)
	}

	// 5. Pipeline components. The server is the event sink the scanners
	// publish into; its control hooks point back at the components.
	srv := server.NewServer(cfg.Config, store)

	prefilter := scanners.NewPrefilter(cfg.Config, store, universe)
	validator := scanners.NewValidator(cfg.Config, store, alpacaStream, alpacaQuotes)
	categorizer := scanners.NewCategorizer(cfg.Config, store, tradierStream, universe, sessions, srv)
	newsCollector := scanners.NewNewsCollector(cfg.Config, store, newsStream, providers, newsBackfill, srv)
	haltCollector := scanners.NewHaltCollector(cfg.Config, store, haltFeed, srv)

	srv.Scan = prefilter
	srv.News = newsCollector
	srv.State = categorizer

	// 6. Start everything, pipeline order
	components := []interfaces.Scanner{prefilter, validator, categorizer, newsCollector, haltCollector}
	for _, comp := range components {
		if err := comp.Start(); err != nil {
			appLogger.Critical("Failed to start component: %v", err)
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	appLogger.Info("All components running")

	// 7. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	// 8. Stop in reverse order so downstream consumers drain first
	appLogger.Info("Shutting down...")
	if err := srv.Stop(); err != nil {
		appLogger.Warning("Server stop: %v", err)
	}
	for i := len(components) - 1; i >= 0; i-- {
		if err := components[i].Stop(); err != nil {
			appLogger.Warning("Component stop: %v", err)
		}
	}
	appLogger.Info("Shutdown complete")
}
