package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/artefactual/fixity/internal/bootstrap"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

var errScansUnsuccessful = errors.New("not every scan succeeded")

var scanCmd = &cobra.Command{
	Use:   "scan <aip-uuid>",
	Short: "Run a fixity scan on a single package",
	Args:  aipArg,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		forceLocal, _ := cmd.Flags().GetBool("force-local")

		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		out := newScanPrinter(cmd, false)
		result, err := svc.Scan(ctx, args[0], fixity.ScanOptions{ForceLocal: forceLocal})
		if err != nil {
			if errors.Is(err, domainfixity.ErrInvalidIdentifier) || errors.Is(err, domainfixity.ErrTypeMismatch) {
				return usageError(err)
			}
			out.internalError(args[0], err)
			return &ExitError{Code: exitScanFailed, Err: errs.Append(err, out.Err())}
		}

		out.result(result)
		if err := out.Err(); err != nil {
			return err
		}
		if !result.Succeeded() {
			return &ExitError{Code: exitScanFailed, Err: fmt.Errorf("%w: AIP %s %s", errScansUnsuccessful, result.AIP, result.Outcome)}
		}
		return nil
	}),
}

// aipArg rejects anything but exactly one well-formed UUID before the
// application is bootstrapped.
func aipArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return usageError(err)
	}
	if _, err := domainfixity.ValidateIdentifier(args[0]); err != nil {
		return usageError(err)
	}
	return nil
}

// ensureSchema creates the tables on first use so a scan can run without an
// explicit init-db.
func ensureSchema(ctx context.Context, app *bootstrap.App) error {
	version, err := app.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != "" {
		return nil
	}
	logging.Info(ctx, "database not initialized, creating schema")
	return app.InitSchema(ctx)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("force-local", false, "Ask the storage service for a local fixity check instead of the space's own")
}
