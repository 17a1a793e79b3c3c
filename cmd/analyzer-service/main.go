package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradersmind-analyzer/internal/analyzer/config"
	"tradersmind-analyzer/internal/analyzer/delivery/poller"
	"tradersmind-analyzer/internal/analyzer/lexicon"
	"tradersmind-analyzer/internal/analyzer/repository"
	"tradersmind-analyzer/internal/analyzer/service"
	"tradersmind-analyzer/pkg/logger"
	"tradersmind-analyzer/pkg/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the analyzer service",
	Run:   runServe,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Runs a historical-only reconciliation pass and prints the result",
	Run:   runBackfill,
}

type services struct {
	cfg         *config.Config
	log         *logger.Logger
	historyRepo repository.MessageHistoryRepository
	index       service.AnalysisIndex
	reconciler  service.Reconciler
	analyzer    service.AnalyzerService
}

func buildServices(withNotifier bool) (*services, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	lex := lexicon.New(cfg.Lexicon)
	historyRepo := repository.NewChatGatewayRepository(cfg, appLogger)
	linkExtractor := repository.NewNoopLinkExtractor()

	extractor := service.NewSymbolExtractor(cfg, lex, historyRepo, appLogger)
	parser := service.NewTopPicksParser(lex)
	scorer := service.NewRelevanceScorer(lex)
	index := service.NewAnalysisIndex(cfg, appLogger)
	reconciler := service.NewReconciler(cfg, lex, extractor, parser, scorer, historyRepo, linkExtractor, appLogger)

	var notifier telegram.Notifier
	if withNotifier && cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Warn("Failed to initialize Telegram notifier", zap.Error(err))
			notifier = nil
		}
	}
	analyzer := service.NewAnalyzerService(cfg, extractor, parser, scorer, index, linkExtractor, notifier, appLogger)

	return &services{
		cfg:         cfg,
		log:         appLogger,
		historyRepo: historyRepo,
		index:       index,
		reconciler:  reconciler,
		analyzer:    analyzer,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svcs, err := buildServices(true)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	appLogger := svcs.log
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting analyzer service", zap.String("name", svcs.cfg.App.Name))

	// Bulk reinitialization runs once, before any live traffic touches the index.
	if svcs.cfg.Analyzer.ReconcileOnStartup {
		cutoff := time.Now().AddDate(0, 0, -svcs.cfg.Analyzer.BacklogCutoffDays)
		merged, err := svcs.reconciler.Reconcile(ctx, svcs.cfg.Analyzer.Channels, cutoff)
		if err != nil {
			appLogger.Warn("Reconciliation interrupted", zap.Error(err))
		}
		svcs.index.LoadFromBulk(merged)
	}

	pruner := service.NewPruner(svcs.index, svcs.cfg.Analyzer.PruneSchedule, appLogger)
	if err := pruner.Start(); err != nil {
		appLogger.Fatal("Failed to start freshness sweep", zap.Error(err))
	}

	livePoller := poller.NewPoller(svcs.cfg, svcs.historyRepo, svcs.analyzer, appLogger)
	go livePoller.Start(ctx)

	appLogger.Info("Analyzer service started. Waiting for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down analyzer service...")
	cancel()
	pruner.Stop()
	appLogger.Info("Analyzer service stopped.")
}

func runBackfill(cmd *cobra.Command, args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svcs, err := buildServices(false)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	appLogger := svcs.log
	defer func() { _ = appLogger.Sync() }()

	cutoff := time.Now().AddDate(0, 0, -svcs.cfg.Analyzer.BacklogCutoffDays)
	merged, err := svcs.reconciler.Reconcile(ctx, svcs.cfg.Analyzer.Channels, cutoff)
	if err != nil {
		appLogger.Warn("Reconciliation interrupted", zap.Error(err))
	}
	svcs.index.LoadFromBulk(merged)

	for _, ticker := range svcs.index.AllFreshTickers() {
		rec, _ := svcs.index.Latest(ticker)
		fmt.Printf("%-6s score=%.2f %s\n", ticker, rec.RelevanceScore, rec.CanonicalURL)
	}
}

func main() {
	rootCmd := &cobra.Command{Use: "analyzer-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-analyzer.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backfillCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing analyzer-service CLI: %s\n", err)
		os.Exit(1)
	}
}
