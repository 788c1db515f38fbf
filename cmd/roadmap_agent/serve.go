package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/pipeline"
	"github.com/jonathan/career-roadmap/internal/server"
	"github.com/jonathan/career-roadmap/internal/server/ratelimit"
	"github.com/jonathan/career-roadmap/internal/service"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes document ingestion, CV/JD matching, chat over ingested documents,
roadmap generation and progress tracking.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: config port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	roadmaps, ctrl, err := a.roadmapService(ctx)
	if err != nil {
		return err
	}
	llmClient, _ := a.llmClient(ctx)
	chat := service.NewChatService(a.embeddingClient(), a.store, llmClient, a.log)

	port := a.cfg.Port
	if servePort != 0 {
		port = servePort
	}

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())
	srv := server.New(server.Config{Port: port}, server.Deps{
		Documents:   a.documentService(ctx),
		Matches:     a.matchService(),
		Roadmaps:    roadmaps,
		Health:      service.NewHealthService(a.embeddingClient(), llmClient, config.Seconds(a.cfg.Generation.ProbeTimeoutSeconds)),
		Chat:        chat,
		Runs:        pipeline.NewManager(ctrl, a.log),
		Tokens:      server.NewJWTService(jwtConfig).AsTokenValidator(),
		RateLimiter: limiter,
		Log:         a.log,
	})

	return srv.Start()
}
