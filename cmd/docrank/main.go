// Command docrank ranks document passages by relevance to a persona
// and the job to be done. It runs one-shot collection processing, a
// batch walker, an HTTP service, an interactive browser, and an MCP
// stdio server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
)

var Version = "dev"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:     "docrank",
	Short:   "Persona-driven document passage ranking",
	Version: Version,
	Long: `docrank extracts structure from document collections and ranks
sections and subsections by relevance to a persona and the job to be
done.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration for a subcommand run.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds a logger from the configured level and format.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Server.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Server.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newEmbedderFactory returns a constructor invoked once per run.
// TF-IDF embedders are corpus-scoped so each run gets a fresh one;
// remote providers share one client and its latency stats. The second
// return is the shared instance for the stats endpoint, nil for tfidf.
func newEmbedderFactory(cfg config.Config) (func() embed.Embedder, embed.Embedder) {
	switch cfg.Embedding.Provider {
	case "openai":
		client := embed.NewOpenAIClient(embed.OpenAIConfig{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey,
			Model:   cfg.Embedding.Model,
			Timeout: time.Duration(cfg.Embedding.Timeout),
		})
		return func() embed.Embedder { return client }, client
	case "ollama":
		client := embed.NewOllamaClient(embed.OllamaConfig{
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
			Timeout: time.Duration(cfg.Embedding.Timeout),
		})
		return func() embed.Embedder { return client }, client
	default:
		return func() embed.Embedder { return embed.NewTFIDF() }, nil
	}
}
