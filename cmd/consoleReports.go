package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/artefactual/fixity/internal/bootstrap"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/usecase/fixity"
	"github.com/artefactual/fixity/internal/usecase/reportconsole"
)

var consoleReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse recorded scan reports",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		aip, _ := cmd.Flags().GetString("aip")
		outcome, _ := cmd.Flags().GetString("outcome")
		limit, _ := cmd.Flags().GetInt("limit")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}

		model := reportconsole.NewReportModel(ctx, svc, reportconsole.Options{
			AIP:             aip,
			Outcome:         outcome,
			Limit:           limit,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run reports console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleReportsCmd)
	consoleReportsCmd.Flags().String("aip", "", "Only reports for this AIP UUID")
	consoleReportsCmd.Flags().String("outcome", "", "Initial outcome filter (success|failure|indeterminate)")
	consoleReportsCmd.Flags().Int("limit", 50, "Max reports to load")
	consoleReportsCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
