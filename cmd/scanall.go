package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/artefactual/fixity/internal/bootstrap"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

var scanAllCmd = &cobra.Command{
	Use:   "scanall",
	Short: "Run a fixity scan on every stored package",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		throttle, _ := cmd.Flags().GetInt("throttle")
		forceLocal, _ := cmd.Flags().GetBool("force-local")
		sorted, _ := cmd.Flags().GetBool("sort")
		if throttle < 0 {
			return usageError(fmt.Errorf("invalid --throttle value %d: must not be negative", throttle))
		}

		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		out := newScanPrinter(cmd, sorted)
		summary, err := svc.ScanAll(ctx, fixity.ScanAllOptions{
			Throttle:   time.Duration(throttle) * time.Second,
			ForceLocal: forceLocal,
			OnResult: func(pkg domainfixity.PackageSummary, result *domainfixity.ScanResult, err error) {
				if err != nil {
					out.internalError(pkg.UUID, err)
					return
				}
				out.result(*result)
			},
		})
		if err != nil {
			out.flush()
			return errs.Append(err, out.Err())
		}

		out.summary(summary.Attempted)
		if err := out.Err(); err != nil {
			return err
		}

		if !summary.Success() {
			return &ExitError{
				Code: exitScanFailed,
				Err: fmt.Errorf("%w: %d of %d scans in session %s",
					errScansUnsuccessful, summary.Attempted-summary.Succeeded, summary.Attempted, summary.SessionID),
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(scanAllCmd)
	scanAllCmd.Flags().Int("throttle", 0, "Seconds to wait after each scan")
	scanAllCmd.Flags().Bool("force-local", false, "Ask the storage service for a local fixity check instead of the space's own")
	scanAllCmd.Flags().Bool("sort", false, "Print unsuccessful scans first, after the whole batch has run")
}
