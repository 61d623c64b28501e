package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
)

var ingestFileID string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Chunk, embed and store plain-text documents",
	Long: `Splits each document into sentence-aware chunks, embeds them in
batches and stores them for retrieval. Ingestion is all-or-nothing per
file: an embedding failure stores nothing and the file must be retried.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFileID, "file-id", "", "file identifier (defaults to the file name; single file only)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	// Checked before the delete below so a misconfigured run never
	// drops an existing ingestion it cannot replace.
	if cfg == nil || cfg.OpenAIAPIKey == "" {
		return domain.ErrEmbeddingUnavailable
	}
	if ingestFileID != "" && len(args) > 1 {
		return errors.New("--file-id can only be used with a single file")
	}

	ctx := context.Background()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		fileID := ingestFileID
		if fileID == "" {
			fileID = filepath.Base(path)
		}

		// Replace any previous ingestion of the same file.
		if err := ingestionService.DeleteFile(ctx, fileID); err != nil {
			return err
		}

		chunks, err := ingestionService.IngestFile(ctx, fileID, []domain.PageText{{Text: string(data)}})
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}

		color.Green("%s: %d chunks stored (file-id %s)", path, len(chunks), fileID)
	}

	return nil
}
