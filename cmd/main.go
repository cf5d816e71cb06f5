package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

const defaultConfigPath = "./configs/config.yaml"

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "pdf-rag",
	Short:         "Ask questions about a PDF document",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, ingestCmd, askCmd)
}

func main() {
	setupLogger(false)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		event := log.Error().Err(err)
		if kind := errorKind(err); kind != nil {
			event = event.Str("kind", kind.Error())
		}
		event.Msg("Command failed")
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

// loadConfig reads and validates the configuration and applies the --debug flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}
	setupLogger(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug().
		Str("embed_provider", cfg.EmbedLLM.Provider).
		Str("embed_model", cfg.EmbedLLM.Model).
		Str("llm_provider", cfg.InferenceLLM.Provider).
		Str("llm_model", cfg.InferenceLLM.Model).
		Str("store", cfg.VectorStore.Type).
		Int("top_k", cfg.RAG.TopK).
		Msg("Loaded config")
	return cfg, nil
}

func errorKind(err error) error {
	for _, kind := range []error{
		models.ErrConfiguration,
		models.ErrLoad,
		models.ErrIndexWrite,
		models.ErrRetrieval,
		models.ErrGeneration,
		models.ErrTransport,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
