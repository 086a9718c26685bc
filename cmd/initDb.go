/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/artefactual/fixity/internal/bootstrap"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/infrastructure/persistence/schema"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

// initDbCmd represents the initDb command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the report tables and record the schema version",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, _ *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		previous, err := app.SchemaVersion(ctx)
		if err != nil {
			return errs.Wrap(err, "read schema version")
		}
		logging.Info(ctx, "start init-db", slog.String("previous_version", previous))

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		line := fmt.Sprintf("database schema initialized: %s (version %s)", app.Config.Database.DSN, schema.CurrentVersion)
		if previous == schema.CurrentVersion {
			line = fmt.Sprintf("database schema already at version %s: %s", previous, app.Config.Database.DSN)
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
