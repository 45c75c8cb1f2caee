package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazuma11121125/rt-bot/db"
	"github.com/kazuma11121125/rt-bot/internal/config"
	dbpkg "github.com/kazuma11121125/rt-bot/internal/db"
	"github.com/kazuma11121125/rt-bot/internal/logger"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration management",
	}
	cmd.AddCommand(migrateSubCmd("up", "Apply all pending migrations", cobra.NoArgs))
	cmd.AddCommand(migrateSubCmd("down", "Roll back all migrations", cobra.NoArgs))
	cmd.AddCommand(migrateSubCmd("version", "Show the current migration version", cobra.NoArgs))
	force := migrateSubCmd("force", "Force the migration version (clears the dirty flag)", cobra.ExactArgs(1))
	force.Use = "force VERSION"
	cmd.AddCommand(force)
	return cmd
}

func migrateSubCmd(command, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			return dbpkg.RunMigrate(logger.L, cfg.Status.DatabasePath, db.Migrations(), command, args)
		},
	}
}
