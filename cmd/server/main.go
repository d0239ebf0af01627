package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/takumi/line-bot/config"
	httpHandler "github.com/takumi/line-bot/internal/adapters/primary/http"
	"github.com/takumi/line-bot/internal/adapters/primary/line"
	"github.com/takumi/line-bot/internal/adapters/secondary/completion"
	"github.com/takumi/line-bot/internal/adapters/secondary/journal"
	"github.com/takumi/line-bot/internal/adapters/secondary/websearch"
	"github.com/takumi/line-bot/internal/core/ports"
	"github.com/takumi/line-bot/internal/core/services"
	"github.com/takumi/line-bot/internal/logger"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	writeConfig := flag.String("write-config", "", "Write a starter config file to the given path and exit")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *debugMode {
		logLevel = slog.LevelDebug
	}
	log := logger.New(logLevel, os.Stdout)

	if *writeConfig != "" {
		if err := config.SaveConfig(config.DefaultConfig(), *writeConfig); err != nil {
			log.Error("Failed to write config file", "path", *writeConfig, "error", err)
			os.Exit(1)
		}
		log.Info("Wrote starter config", "path", *writeConfig)
		return
	}

	log.Info("Starting LINE Bot")

	// Load configuration
	var cfg *config.Config
	var err error

	if *configPath != "" {
		log.Info("Loading configuration", "path", *configPath)
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	} else if path := config.GetConfigPath(); fileExists(path) {
		log.Info("Loading configuration", "path", path)
		cfg, err = config.LoadConfig(path)
		if err != nil {
			log.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	} else {
		log.Info("No config file found, using defaults with environment overrides")
		cfg = config.FromEnv()
	}

	// Initialize adapters
	log.Info("Initializing adapters")

	// Create completion adapter. A missing backend is not fatal; the bot
	// degrades to command handling and echo replies.
	var completionPort ports.CompletionPort
	switch cfg.Completion.Provider {
	case "openrouter":
		adapter, err := completion.NewOpenRouterAdapter(&cfg.Completion, log)
		if err != nil {
			log.Warn("Running without completion backend", "provider", "openrouter", "error", err)
		} else {
			completionPort = adapter
			log.Info("Using OpenRouter completion backend", "model", cfg.Completion.OpenRouter.Model)
		}
	case "ollama":
		adapter, err := completion.NewOllamaAdapter(&cfg.Completion, log)
		if err != nil {
			log.Warn("Running without completion backend", "provider", "ollama", "error", err)
		} else {
			completionPort = adapter
			log.Info("Using Ollama completion backend", "model", cfg.Completion.Ollama.Model)
		}
	default:
		log.Warn("Unknown completion provider, running without completion backend", "provider", cfg.Completion.Provider)
	}

	// Create web search adapter based on config
	var webSearchAdapter ports.WebSearchPort
	if cfg.WebSearch.Enabled {
		log.Info("Initializing web search adapter", "provider", cfg.WebSearch.Provider)

		switch cfg.WebSearch.Provider {
		case "serpapi":
			adapter, err := websearch.NewSerpAPIAdapter(&cfg.WebSearch, log)
			if err != nil {
				log.Warn("Running without web search", "provider", "serpapi", "error", err)
			} else {
				webSearchAdapter = adapter
				log.Info("Using SerpAPI adapter")
			}
		case "brave":
			adapter, err := websearch.NewBraveAdapter(&cfg.WebSearch, log)
			if err != nil {
				log.Warn("Running without web search", "provider", "brave", "error", err)
			} else {
				webSearchAdapter = adapter
				log.Info("Using Brave Search adapter")
			}
		case "duckduckgo", "":
			webSearchAdapter = websearch.NewDuckDuckGoAdapter(&cfg.WebSearch, log)
			log.Info("Using DuckDuckGo adapter")
		default:
			log.Warn("Unknown web search provider, falling back to DuckDuckGo", "provider", cfg.WebSearch.Provider)
			webSearchAdapter = websearch.NewDuckDuckGoAdapter(&cfg.WebSearch, log)
		}
	}

	// Create journal store
	var journalPort ports.JournalPort
	var journalDB *journal.DB
	if cfg.Journal.Enabled {
		journalDB, err = journal.New(cfg.Journal.Path)
		if err != nil {
			log.Warn("Running without journal", "path", cfg.Journal.Path, "error", err)
		} else {
			journalPort = journalDB
			log.Info("Journal opened", "path", cfg.Journal.Path)
		}
	}

	// Create reply service
	replyService := services.NewReplyService(completionPort, webSearchAdapter, journalPort, cfg, log)

	// Create LINE adapter. Without channel credentials the webhook answers 503
	// but the operational endpoints stay up.
	lineAdapter, err := line.NewLineAdapter(replyService, cfg, log)
	if err != nil {
		log.Warn("Webhook disabled", "error", err)
		lineAdapter = nil
	}

	// Create HTTP handler
	handler := httpHandler.NewHandler(replyService, cfg, lineAdapter, log)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer timeout for LLM responses
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Create a channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Block until a signal is received
	<-stop
	log.Info("Shutting down server...")

	// Create a deadline context for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if journalDB != nil {
		if err := journalDB.Close(); err != nil {
			log.Error("Failed to close journal", "error", err)
		}
	}

	log.Info("Server exited")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
