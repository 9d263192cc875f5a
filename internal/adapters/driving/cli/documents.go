package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

var (
	documentsRefresh bool
	documentsJSON    bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List backend documents",
	Long: `Lists the documents known to the backend, sorted by filename.

Use the IDs with --doc on search and ask to restrict results to those
documents.`,
	Args: cobra.NoArgs,
	RunE: runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsRefresh, "refresh", false, "bypass the document cache")
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if services.Documents == nil {
		return errors.New("document service not configured")
	}

	if documentsRefresh {
		services.Documents.Refresh()
	}
	docs, err := services.Documents.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		if docs == nil {
			docs = []domain.DocumentSummary{}
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents found.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tSIZE\tTYPE")
	for _, d := range docs {
		size := "-"
		if d.Size > 0 {
			size = formatSize(d.Size)
		}
		contentType := d.ContentType
		if contentType == "" {
			contentType = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.DisplayName(), size, contentType)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing documents: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d documents\n", len(docs))
	return nil
}
