package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-roadmap/internal/config"
	"github.com/jonathan/career-roadmap/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a user",
	Long:  "Issue a signed JWT for the user given by --user (or ROADMAP_USER_ID). Requires JWT_SECRET.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := resolveUser(userFlag)
		if err != nil {
			return err
		}
		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			return fmt.Errorf("failed to create JWT config: %w", err)
		}
		token, err := server.NewJWTService(jwtConfig).GenerateToken(userID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
