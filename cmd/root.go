/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
)

var (
	cfgFile      string
	debug        bool
	timestamps   bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fixity",
	Short: "Run fixity scans against a storage service",
	Long: "Asks a storage service to verify the fixity of its stored packages, records " +
		"every outcome locally and optionally reports it to a remote service.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		format := strings.ToLower(strings.TrimSpace(outputFormat))
		if format != "text" && format != "json" {
			return usageError(fmt.Errorf("unsupported format %q (expected: text or json)", outputFormat))
		}
		outputFormat = format

		ctx := logging.WithLogger(cmd.Context(), logging.New(cmd.ErrOrStderr(), debug))
		cmd.SetContext(ctx)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	ctx = logging.WithLogger(ctx, logging.New(rootCmd.ErrOrStderr(), false))
	ctx = logging.WithAttrs(ctx, slog.String("app", "fixity"))

	rootCmd.SetContext(ctx)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	if ExitCode(err) == exitScanFailed {
		logging.Debug(ctx, "command finished with unsuccessful scans", slog.Any("err", errs.Loggable(err)))
		return err
	}

	logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
	rootCmd.PrintErrln("Error:", userMessage(err))
	return err
}

// userMessage prefers the remote service sentence over the wrap chain.
func userMessage(err error) string {
	var se *domainfixity.ServiceError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: ./configs/fixity.* or ./fixity.*)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug logging and stack traces for internal errors")
	rootCmd.PersistentFlags().BoolVar(&timestamps, "timestamps", false, "Prefix output lines with a UTC timestamp")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format: text|json")
}
