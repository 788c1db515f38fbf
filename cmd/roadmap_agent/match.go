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

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a CV against a job description",
	Long: "Score a CV against a job description using semantic similarity. Each side is either a file " +
		"(text, PDF or DOCX) or the id of an ingested document.",
	RunE: runMatch,
}

var (
	matchCVFile  string
	matchJDFile  string
	matchCVDoc   string
	matchJDDoc   string
	matchNoSave  bool
	matchJSONOut bool
)

func init() {
	matchCmd.Flags().StringVar(&matchCVFile, "cv", "", "Path to the CV file")
	matchCmd.Flags().StringVar(&matchJDFile, "jd", "", "Path to the job description file")
	matchCmd.Flags().StringVar(&matchCVDoc, "cv-doc", "", "ID of an ingested CV document")
	matchCmd.Flags().StringVar(&matchJDDoc, "jd-doc", "", "ID of an ingested job description document")
	matchCmd.Flags().BoolVar(&matchNoSave, "no-save", false, "Do not store the match result")
	matchCmd.Flags().BoolVar(&matchJSONOut, "json", false, "Print the result as JSON")

	matchCmd.MarkFlagsMutuallyExclusive("cv", "cv-doc")
	matchCmd.MarkFlagsMutuallyExclusive("jd", "jd-doc")
	matchCmd.MarkFlagsOneRequired("cv", "cv-doc")
	matchCmd.MarkFlagsOneRequired("jd", "jd-doc")

	rootCmd.AddCommand(matchCmd)
}

// readDocument extracts the text of a local file
func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, err := ingestion.ExtractText(ingestion.DetectContentType(path, "", data), data)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	return text, nil
}

func buildMatchRequest() (*types.MatchRequest, error) {
	req := &types.MatchRequest{CVDocumentID: matchCVDoc, JDDocumentID: matchJDDoc}
	if matchCVFile != "" {
		text, err := readDocument(matchCVFile)
		if err != nil {
			return nil, err
		}
		req.CVText, req.CVSource = text, filepath.Base(matchCVFile)
	}
	if matchJDFile != "" {
		text, err := readDocument(matchJDFile)
		if err != nil {
			return nil, err
		}
		req.JDText, req.JDSource = text, filepath.Base(matchJDFile)
	}
	if matchNoSave {
		persist := false
		req.PersistResult = &persist
	}
	return req, nil
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	userID, err := resolveUser(userFlag)
	if err != nil {
		return err
	}
	req, err := buildMatchRequest()
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.matchService().Match(ctx, userID, req)
	if err != nil {
		return err
	}

	if matchJSONOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintMatchResult(result)
	if !matchNoSave {
		fmt.Fprintf(cmd.OutOrStdout(), "Match result: %s\n", result.ID)
	}
	return nil
}
