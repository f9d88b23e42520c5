package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwallet/swapcore/engine/balances"
	"github.com/emberwallet/swapcore/engine/config"
	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/flags"
	"github.com/emberwallet/swapcore/engine/quote"
	"github.com/emberwallet/swapcore/engine/rpc"
	"github.com/emberwallet/swapcore/engine/swap"
	"github.com/emberwallet/swapcore/tokenlists"
)

var log zerolog.Logger

func init() {
	// Initialize zerolog with console writer
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the RPC package
	rpc.SetLogger(log)
}

func main() {
	configPath := flag.String("config", "", "engine config file (toml); env vars are used when omitted")
	listsDir := flag.String("token-lists", "", "directory of token list files to load at startup")
	flag.Parse()

	log.Info().Msg("Starting swapcore engine")

	var cfgPath *string
	if *configPath != "" {
		cfgPath = configPath
	}
	cfg, err := config.LoadEngineConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load engine config")
	}

	registry := currency.NewRegistry()

	// Chain metadata: wrapped natives and execution contracts
	if cfg.ChainsFile != "" {
		loader := config.NewChainsLoader()
		chainsCfg, err := loader.LoadFromFile(cfg.ChainsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load chains file")
		}
		if err := loader.Apply(chainsCfg, registry); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply chains file")
		}
		log.Info().Int("count", len(chainsCfg.Chains)).Msg("Loaded chains")
	}

	// Token lists: fetch configured sources, then load everything on disk
	if *listsDir != "" {
		for _, src := range cfg.TokenListURLs {
			if err := tokenlists.ListsDownload(src, *listsDir); err != nil {
				log.Warn().Err(err).Str("src", src).Msg("Failed to download token list")
			}
		}
		lists, err := tokenlists.LoadDir(*listsDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load token lists")
		}
		for _, list := range lists {
			added := tokenlists.Register(list, registry)
			log.Info().Str("list", list.Name).Int("tokens", added).Msg("Registered token list")
		}
	}

	// Quoting source with failover endpoints
	quoteConfig := quote.DefaultClientConfig()
	quoteConfig.SlippageBps = cfg.SlippageBps
	quoteClient, err := quote.NewClient(cfg.QuoterURLs[0], cfg.QuoterURLs[1:], quoteConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create quote client")
	}
	defer quoteClient.Close()

	// Balance/price data source
	var reader *balances.Reader
	if cfg.BalancesURL != "" {
		balanceClient, err := balances.NewClient(cfg.BalancesURL, 10*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create balances client")
		}
		reader = balances.NewReader(balanceClient, registry, flagSource(cfg))
	}

	engine := &rpc.Engine{
		Registry:   registry,
		Resolver:   quote.NewResolver(quoteClient),
		Balances:   reader,
		Classifier: swap.NewWrapClassifier(registry),
	}

	serverConfig := buildServerConfig(cfg)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := rpc.NewServer(ctx, serverConfig, engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// flagSource builds the feature flag source from the config's flags table.
func flagSource(cfg *config.EngineConfig) flags.Source {
	if len(cfg.Flags) == 0 {
		return flags.Disabled()
	}
	static := make(flags.Static, len(cfg.Flags))
	for name, enabled := range cfg.Flags {
		static[flags.Flag(name)] = enabled
	}
	return static
}

// buildServerConfig converts the loaded EngineConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.EngineConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	// Set OpenTelemetry configuration if any telemetry is enabled
	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     defaultString(cfg.ServiceName, "swapcore-engine"),
			ServiceVersion:  defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:     defaultString(cfg.Environment, "development"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}

	return serverConfig
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
