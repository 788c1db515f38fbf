package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/logger"
)

var migratePrint bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if migratePrint {
			fmt.Fprintln(cmd.OutOrStdout(), db.Schema())
			return nil
		}
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		store, err := openStore(context.Background(), cfg, logger.Nop())
		if err != nil {
			return err
		}
		store.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "Print the PostgreSQL schema instead of applying it")
	rootCmd.AddCommand(migrateCmd)
}
