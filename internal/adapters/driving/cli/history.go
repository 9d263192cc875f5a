package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches and questions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output entries as JSON")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

var errNoHistory = errors.New("history service not configured")

func runHistory(cmd *cobra.Command, _ []string) error {
	if services.History == nil {
		return errNoHistory
	}

	entries, err := services.History.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyJSON {
		if entries == nil {
			entries = []domain.HistoryEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
		return nil
	}
	for _, e := range entries {
		printHistoryEntry(cmd.OutOrStdout(), e)
	}
	return nil
}

func printHistoryEntry(w io.Writer, e domain.HistoryEntry) {
	when := e.CreatedAt.Local().Format("2006-01-02 15:04")
	fmt.Fprintf(w, "%s  %-6s %-8s %s\n", when, e.Kind, e.Mode, e.Query)

	switch e.Kind {
	case domain.QueryKindSearch:
		fmt.Fprintf(w, "%s\n", mutedStyle.Render(fmt.Sprintf("    %d matches", e.TotalMatches)))
	case domain.QueryKindRAG:
		summary := fmt.Sprintf("    %s, %d citations", e.Phase, e.CitationCount)
		if answer := firstLine(e.Answer, 72); answer != "" {
			summary += ": " + answer
		}
		fmt.Fprintf(w, "%s\n", mutedStyle.Render(summary))
	}
}

// firstLine returns the first line of s, cut to at most maxLen runes.
func firstLine(s string, maxLen int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	runes := []rune(line)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return line
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if services.History == nil {
		return errNoHistory
	}
	if err := services.History.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}
