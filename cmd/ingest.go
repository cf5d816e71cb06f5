package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pdf-rag/internal/ingest"
	"pdf-rag/internal/parser"
)

var (
	ingestFile   string
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load, chunk and index the document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.RAG.DocumentPath
		if ingestFile != "" {
			path = ingestFile
		}
		chunker := parser.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

		if ingestDryRun {
			_, err := ingest.NewPipeline(chunker, nil, nil).DryRun(path)
			return err
		}

		ctx := cmd.Context()
		embedder, err := newEmbedder(ctx, cfg)
		if err != nil {
			return err
		}
		store, err := openStore(ctx, cfg, embedder)
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := ingest.NewPipeline(chunker, embedder, store).Run(ctx, path)
		if err != nil {
			return err
		}
		log.Info().Str("source", report.Source).Int("indexed", report.Indexed).Msg("Document indexed")
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "document to ingest (defaults to rag.document_path)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "print the passages without embedding or writing them")
}
