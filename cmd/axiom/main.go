package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/axiomgov/axiom/internal/analytics"
	"github.com/axiomgov/axiom/internal/config"
	"github.com/axiomgov/axiom/internal/embedding"
	"github.com/axiomgov/axiom/internal/generation"
	"github.com/axiomgov/axiom/internal/ingest"
	"github.com/axiomgov/axiom/internal/models"
	"github.com/axiomgov/axiom/internal/rag"
	"github.com/axiomgov/axiom/internal/rerank"
	"github.com/axiomgov/axiom/internal/risk"
	"github.com/axiomgov/axiom/internal/server"
	"github.com/axiomgov/axiom/internal/vector"
	"github.com/axiomgov/axiom/internal/watcher"
	"github.com/axiomgov/axiom/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/axiom/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "axiom server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("axiom version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (pipeline state transitions, file ingestion, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		idx := components.Indexer
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, err := idx.IndexFile(context.Background(), path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(context.Background()); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Store,
		components.Tracker,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	if cfg.Storage.VectorStoreDir != "" {
		if err := components.Store.Save(cfg.Storage.VectorStoreDir); err != nil {
			logger.Warn("vector store save failed", zap.String("dir", cfg.Storage.VectorStoreDir), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topK := fs.Int("top-k", 0, "number of evidence chunks to retrieve (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	question := buildQuestion(fs.Args())
	if question == "" {
		fmt.Println("Usage: axiom ask [flags] <question>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	req := &models.QuestionRequest{Question: question, TopK: *topK}
	resp, err := components.Engine.AnswerQuestion(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Question failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		return
	}

	ans := resp.Response
	fmt.Printf("Answer: %s\n\n", ans.Answer)
	fmt.Printf("Risk category: %s\n", ans.RiskCategory)
	fmt.Printf("Confidence: %.2f\n", ans.ConfidenceScore)
	fmt.Printf("Evidence coverage: %.2f\n", ans.EvidenceCoverage)
	if ans.Limitations != "" {
		fmt.Printf("Limitations: %s\n", ans.Limitations)
	}
	if len(ans.Citations) > 0 {
		fmt.Println("Citations:")
		for _, c := range ans.Citations {
			fmt.Printf("  - %s (%s)\n", c.Document, c.Section)
		}
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: axiom ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	var chunks int
	if info.IsDir() {
		exts := cfg.Watch.Extensions
		if exts == nil {
			exts = []string{".pdf", ".docx", ".md", ".txt", ".xlsx"}
		}
		chunks, err = components.Indexer.IndexDirectory(ctx, path, exts)
	} else {
		chunks, err = components.Indexer.IndexFile(ctx, path)
	}
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.VectorStoreDir != "" {
		if err := components.Store.Save(cfg.Storage.VectorStoreDir); err != nil {
			fmt.Printf("Failed to save vector store: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Ingested %s: %d chunk(s)\n", path, chunks)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize components: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	stats := components.Store.GetStats()
	metrics, err := components.Tracker.GetSystemMetrics(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read analytics: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		out := map[string]interface{}{
			"store":     stats,
			"analytics": metrics,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Printf("Vector store: %d chunk(s), dimension %d\n", stats.TotalChunks, stats.Dimension)
	for docType, count := range stats.DocTypes {
		fmt.Printf("  %s: %d\n", docType, count)
	}
	fmt.Printf("Questions answered: %d\n", metrics.TotalQuestions)
	if metrics.TotalQuestions > 0 {
		fmt.Printf("Average confidence: %.2f\n", metrics.AvgConfidence)
		fmt.Printf("Average evidence coverage: %.2f\n", metrics.AvgEvidenceCoverage)
	}
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

// Components holds initialized services.
type Components struct {
	Store    *vector.Store
	Embedder embedding.Embedder
	Engine   *rag.Engine
	Indexer  *ingest.Indexer
	Tracker  *analytics.Tracker

	generator generation.Generator
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.generator != nil {
		_ = c.generator.Close()
	}
	if c.Tracker != nil {
		_ = c.Tracker.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	generator, err := generation.NewGenerator(&cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	store, err := vector.NewStore(cfg.Retrieval.VectorDimension)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	if cfg.Storage.VectorStoreDir != "" {
		if loadErr := store.Load(cfg.Storage.VectorStoreDir); loadErr != nil {
			logger.Warn("vector store load skipped",
				zap.String("dir", cfg.Storage.VectorStoreDir),
				zap.Error(loadErr))
		}
	}
	logger.Info("vector store initialized",
		zap.Int("dimension", store.Dimension()),
		zap.Int("chunks", store.Size()))

	classifier, err := risk.NewClassifier(ctx, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize risk classifier: %w", err)
	}
	calibrator := risk.NewCalibrator(cfg.Retrieval.MinEvidenceChunks)
	reranker := rerank.NewReranker()

	engine := rag.NewEngine(store, embedder, reranker, classifier, calibrator, generator, &cfg.Retrieval, logger)

	processor := ingest.NewProcessor(ingest.NewExtractor())
	chunker := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	indexer := ingest.NewIndexer(processor, chunker, embedder, store, logger)

	tracker, err := analytics.NewTracker(cfg.Storage.AnalyticsDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analytics: %w", err)
	}

	return &Components{
		Store:     store,
		Embedder:  embedder,
		Engine:    engine,
		Indexer:   indexer,
		Tracker:   tracker,
		generator: generator,
	}, nil
}

func printUsage() {
	fmt.Println(`axiom - Governance document QA server

Usage:
  axiom server [flags]              Start the HTTP server
  axiom ask [flags] <question>      Ask a question against the indexed documents
  axiom ingest [flags] <path>       Ingest a document or directory
  axiom status [flags]              Show store and analytics status
  axiom version                     Show version
  axiom help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/axiom/config.yaml)
  --debug            Enable debug logging (pipeline state transitions, file ingestion, etc.)

Ask Flags:
  --config string    Config file path
  --top-k int        Number of evidence chunks to retrieve (0 = config default)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path

Status Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)`)
}
