package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/services"
)

var (
	askFileIDs []string
	askHistory string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Retrieve chunks relevant to a question",
	Long: `Treats the question as the latest user message of a conversation,
derives a search query and keywords, runs the hybrid search against the
given files and prints the retrieved chunks grouped per file in reading
order.

With --history, prior conversation turns are read from a JSON file and
windowed to the configured character budget before retrieval.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askFileIDs, "file", "f", nil, "file identifier to search (repeatable)")
	askCmd.Flags().StringVar(&askHistory, "history", "", "JSON file with prior conversation messages")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	messages, err := loadHistory(askHistory)
	if err != nil {
		return err
	}
	messages = append(messages, domain.Message{ID: "cli", Role: domain.RoleUser, Content: args[0]})

	messages = services.WindowMessages(messages, services.WindowConfig{
		LimitFirst:     cfg.WindowLimitFirst,
		LimitRecent:    cfg.WindowLimitRecent,
		CharacterLimit: cfg.WindowCharacterLimit,
	})

	ctx := context.Background()

	for _, fileID := range askFileIDs {
		chunks, err := store.GetChunks(ctx, fileID)
		if err != nil {
			return fmt.Errorf("check file %s: %w", fileID, err)
		}
		if len(chunks) == 0 {
			return fmt.Errorf("file %s has no ingested chunks: %w", fileID, domain.ErrNotFound)
		}
	}

	result, err := retrievalService.Retrieve(ctx, messages, askFileIDs)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	if result == nil {
		cmd.Println("No files given, nothing retrieved. Use --file to select ingested files.")
		return nil
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if result.Empty() {
		cmd.Println("No matching chunks found.")
		return nil
	}

	color.Cyan("Query: %s", result.Query)
	if len(result.Keywords) > 0 {
		color.Cyan("Keywords: %v", result.Keywords)
	}
	cmd.Println()

	fileIDs := make([]string, 0, len(result.Files))
	for fileID := range result.Files {
		fileIDs = append(fileIDs, fileID)
	}
	sort.Strings(fileIDs)

	for _, fileID := range fileIDs {
		chunks := result.Files[fileID]
		color.Yellow("%s (%d chunks)", fileID, len(chunks))
		for _, chunk := range chunks {
			if chunk.Page != nil {
				cmd.Printf("  [%d, p.%d] %s\n", chunk.OrderIndex, *chunk.Page, snippet(chunk.Content))
			} else {
				cmd.Printf("  [%d] %s\n", chunk.OrderIndex, snippet(chunk.Content))
			}
		}
		cmd.Println()
	}

	return nil
}

// loadHistory reads prior conversation messages from a JSON array of
// {id, role, content} objects.
func loadHistory(path string) ([]domain.Message, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}

	var raw []struct {
		ID      string `json:"id"`
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}

	messages := make([]domain.Message, len(raw))
	for i, m := range raw {
		messages[i] = domain.Message{ID: m.ID, Role: m.Role, Content: m.Content}
	}
	return messages, nil
}

// snippet trims chunk content to one display line.
func snippet(content string) string {
	const maxLen = 120
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}
