package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-roadmap/internal/ingestion"
	"github.com/jonathan/career-roadmap/internal/observability"
	"github.com/jonathan/career-roadmap/internal/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a CV, job description or profile",
	Long:  "Ingest a document from a file, pasted text or a URL: its text is cleaned, chunked, embedded and stored.",
	RunE:  runIngest,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents",
	RunE:  runDocuments,
}

var (
	ingestFile   string
	ingestText   string
	ingestURL    string
	ingestType   string
	ingestSource string
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "Path to a text, PDF or DOCX file")
	ingestCmd.Flags().StringVarP(&ingestText, "text", "t", "", "Text to ingest")
	ingestCmd.Flags().StringVarP(&ingestURL, "url", "u", "", "Web page or GitHub profile URL")
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "Document type: cv, jd, profile, repo or other")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "Source label for pasted text")

	ingestCmd.MarkFlagsMutuallyExclusive("file", "text", "url")
	ingestCmd.MarkFlagsOneRequired("file", "text", "url")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	userID, err := resolveUser(userFlag)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	docs := a.documentService(ctx)
	docType := types.DocumentType(ingestType)

	var meta *ingestion.Metadata
	switch {
	case ingestFile != "":
		data, err := os.ReadFile(ingestFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", ingestFile, err)
		}
		meta, err = docs.IngestFile(ctx, userID, filepath.Base(ingestFile), "", data, docType)
		if err != nil {
			return err
		}
	case ingestURL != "":
		meta, err = docs.IngestURL(ctx, userID, &types.IngestURLRequest{URL: ingestURL, Type: docType})
	default:
		meta, err = docs.IngestText(ctx, userID, &types.IngestTextRequest{Text: ingestText, Source: ingestSource, Type: docType})
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	userID, err := resolveUser(userFlag)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.documentService(ctx).List(ctx, userID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents")
		return nil
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDocuments(docs)
	return nil
}
