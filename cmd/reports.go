package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artefactual/fixity/internal/bootstrap"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect recorded scan reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded reports, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		query, err := reportQueryFromFlags(cmd)
		if err != nil {
			return err
		}

		records, err := svc.ListReports(ctx, query)
		if err != nil {
			logging.Error(ctx, "list reports failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list reports")
		}

		if outputFormat == "json" {
			views := make([]reportView, 0, len(records))
			for _, record := range records {
				views = append(views, newReportView(record, false))
			}
			return writeJSON(cmd.OutOrStdout(), views)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\taip_uuid\toutcome\tdelivery\tbegun\tended\tsession_uuid"); err != nil {
			return errs.Wrap(err, "write reports header")
		}
		for _, record := range records {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				record.ID, record.PackageUUID, record.Outcome, record.DeliveryStatus,
				record.Begun, record.Ended, record.SessionID); err != nil {
				return errs.Wrap(err, "write reports row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush reports table")
		}
		return nil
	}),
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show one recorded report with its payload",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		reportID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || reportID == 0 {
			return usageError(fmt.Errorf("invalid report id %q", args[0]))
		}
		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		record, err := svc.GetReport(ctx, reportID)
		if err != nil {
			if errors.Is(err, ports.ErrReportNotFound) {
				return usageError(fmt.Errorf("report %d not found", reportID))
			}
			return errs.Wrapf(err, "get report %d", reportID)
		}

		if outputFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), newReportView(record, true))
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		rows := [][2]string{
			{"id", strconv.FormatUint(record.ID, 10)},
			{"aip_uuid", record.PackageUUID},
			{"session_uuid", record.SessionID},
			{"outcome", record.Outcome},
			{"delivery_status", record.DeliveryStatus},
			{"begun", record.Begun},
			{"ended", record.Ended},
			{"message", record.Message},
		}
		for _, row := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", row[0], row[1]); err != nil {
				return errs.Wrap(err, "write report field")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush report fields")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", indentJSON(record.Report)); err != nil {
			return errs.Wrap(err, "write report payload")
		}
		return nil
	}),
}

var reportsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count recorded reports per outcome",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		counts, err := svc.Stats(ctx)
		if err != nil {
			logging.Error(ctx, "count reports failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "count reports")
		}

		if outputFormat == "json" {
			out := make(map[string]int64, len(counts))
			for _, count := range counts {
				out[count.Outcome] = count.Count
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "outcome\tcount"); err != nil {
			return errs.Wrap(err, "write stats header")
		}
		for _, count := range counts {
			if _, err := fmt.Fprintf(w, "%s\t%d\n", count.Outcome, count.Count); err != nil {
				return errs.Wrap(err, "write stats row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush stats table")
		}
		return nil
	}),
}

var reportsStatusCmd = &cobra.Command{
	Use:   "status <aip-uuid>",
	Short: "Show the latest scan status of a package",
	Args:  aipArg,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		status, cached, err := svc.PackageStatus(ctx, args[0])
		if err != nil {
			if errors.Is(err, ports.ErrReportNotFound) {
				return usageError(fmt.Errorf("AIP %s has never been scanned", args[0]))
			}
			return errs.Wrap(err, "read package status")
		}
		logging.Debug(ctx, "package status loaded", slog.Bool("cached", cached))

		if outputFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), status)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		rows := [][2]string{
			{"aip_uuid", status.AIP},
			{"outcome", status.Outcome},
			{"delivery_status", status.DeliveryStatus},
			{"report_id", strconv.FormatUint(status.ReportID, 10)},
			{"session_uuid", status.SessionID},
			{"message", status.Message},
			{"source", statusSource(cached)},
		}
		for _, row := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", row[0], row[1]); err != nil {
				return errs.Wrap(err, "write status field")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush status fields")
		}
		return nil
	}),
}

// reportView is the json shape of a recorded report.
type reportView struct {
	ID             uint64          `json:"id"`
	AIP            string          `json:"aip_uuid"`
	SessionID      string          `json:"session_uuid"`
	Outcome        string          `json:"outcome"`
	DeliveryStatus string          `json:"delivery_status"`
	Begun          string          `json:"begun"`
	Ended          string          `json:"ended"`
	Message        string          `json:"message"`
	Report         json.RawMessage `json:"report,omitempty"`
}

func newReportView(record ports.ReportRecord, withReport bool) reportView {
	view := reportView{
		ID:             record.ID,
		AIP:            record.PackageUUID,
		SessionID:      record.SessionID,
		Outcome:        record.Outcome,
		DeliveryStatus: record.DeliveryStatus,
		Begun:          record.Begun,
		Ended:          record.Ended,
		Message:        record.Message,
	}
	if withReport && json.Valid([]byte(record.Report)) {
		view.Report = json.RawMessage(record.Report)
	}
	return view
}

func reportQueryFromFlags(cmd *cobra.Command) (fixity.ReportQuery, error) {
	aip, _ := cmd.Flags().GetString("aip")
	session, _ := cmd.Flags().GetString("session")
	outcome, _ := cmd.Flags().GetString("outcome")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fixity.ReportQuery{}, usageError(fmt.Errorf("invalid --limit value %d", limit))
	}
	return fixity.ReportQuery{
		AIP:       aip,
		SessionID: session,
		Outcome:   outcome,
		Limit:     limit,
	}, nil
}

func addReportQueryFlags(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().String("aip", "", "Only reports for this AIP UUID")
	cmd.Flags().String("session", "", "Only reports from this session UUID")
	cmd.Flags().String("outcome", "", "Only reports with this outcome (success|failure|indeterminate)")
	cmd.Flags().Int("limit", defaultLimit, "Max reports to return")
}

func statusSource(cached bool) string {
	if cached {
		return "cache"
	}
	return "database"
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return errs.Wrap(err, "write json output")
	}
	return nil
}

func indentJSON(raw string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return out.String()
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsStatsCmd, reportsStatusCmd)
	addReportQueryFlags(reportsListCmd, 50)
}
