package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-roadmap/internal/observability"
	"github.com/jonathan/career-roadmap/internal/pipeline"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/service"
	"github.com/jonathan/career-roadmap/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a learning roadmap",
	Long: `Generate a learning roadmap with the LLM, validate and refine it, attach learning
resources and store the result. Progress is printed to stderr; Ctrl+C stops the run.`,
	RunE: runGenerate,
}

var (
	genCategory string
	genSource   string
	genMatchID  string
	genContext  string
	genHours    int
	genStyle    string
	genLevel    string
	genGoals    []string
	genActivate bool
	genJSONOut  bool
	genNoSave   bool
)

func init() {
	generateCmd.Flags().StringVar(&genCategory, "category", "", "Roadmap category, e.g. \"backend engineering\" (required)")
	generateCmd.Flags().StringVar(&genSource, "source", string(types.SourceProfile), "Source: profile, cv-analysis, jd-analysis, hybrid or manual")
	generateCmd.Flags().StringVar(&genMatchID, "match", "", "Match result ID to build the roadmap from")
	generateCmd.Flags().StringVar(&genContext, "context", "", "Free-form context for the model")
	generateCmd.Flags().IntVar(&genHours, "hours", 0, "Hours available per week")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "Learning style: visual, reading, hands-on, auditory or mixed")
	generateCmd.Flags().StringVar(&genLevel, "level", "", "Experience level: beginner, intermediate or advanced")
	generateCmd.Flags().StringSliceVar(&genGoals, "goal", nil, "Learning goal (repeatable)")
	generateCmd.Flags().BoolVar(&genActivate, "activate", false, "Mark the roadmap as active")
	generateCmd.Flags().BoolVar(&genJSONOut, "json", false, "Print the roadmap as JSON")
	generateCmd.Flags().BoolVar(&genNoSave, "no-save", false, "Do not store the roadmap")

	_ = generateCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(generateCmd)
}

func generateRequest() *types.GenerateRoadmapRequest {
	return &types.GenerateRoadmapRequest{
		Category:      genCategory,
		Source:        types.RoadmapSource(genSource),
		MatchResultID: genMatchID,
		Context:       genContext,
		Activate:      genActivate,
		Profile: types.UserProfile{
			LearningStyle:   types.LearningStyle(genStyle),
			HoursPerWeek:    genHours,
			ExperienceLevel: genLevel,
			Goals:           genGoals,
		},
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userID, err := resolveUser(userFlag)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, ctrl, err := a.roadmapService(ctx)
	if err != nil {
		return err
	}
	req := generateRequest()
	genReq, err := svc.BuildRequest(ctx, userID, req)
	if err != nil {
		return err
	}

	var save pipeline.SaveFunc
	if !genNoSave {
		save = func(ctx context.Context, rm *types.Roadmap, out *roadmap.Outcome) error {
			return svc.Save(ctx, rm, out, req.Activate)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, svc.Timeout())
	defer cancel()
	run := pipeline.Start(runCtx, ctrl, save, pipeline.Request{UserID: userID, Generation: genReq}, a.log)

	stderr := cmd.ErrOrStderr()
	for e := range run.Events() {
		switch e.Type {
		case pipeline.EventStatus:
			fmt.Fprintf(stderr, "[%s] %s\n", e.Category, e.Message)
		case pipeline.EventProgress:
			fmt.Fprintf(stderr, "[%s] %.0f%% %s\n", e.Category, e.Progress, e.Message)
		}
	}

	rm, err := run.Result()
	if errors.Is(err, pipeline.ErrStopped) {
		return errors.New("generation stopped")
	}
	if err != nil {
		return service.GenerationError(runCtx, err)
	}

	if genJSONOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rm)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRoadmap(rm)
	if !genNoSave {
		fmt.Fprintf(cmd.OutOrStdout(), "Roadmap saved: %s\n", rm.ID)
	}
	return nil
}
