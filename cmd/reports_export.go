package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artefactual/fixity/internal/bootstrap"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
	"github.com/artefactual/fixity/internal/usecase/fixity"
)

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded reports with their payloads",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App, svc *fixity.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			format = "json"
		}
		switch format {
		case "json", "jsonl", "yaml", "toml":
		default:
			return usageError(fmt.Errorf("unsupported format %q (expected: json, jsonl, yaml or toml)", format))
		}

		query, err := reportQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := ensureSchema(ctx, app); err != nil {
			return err
		}

		records, err := svc.ListReports(ctx, query)
		if err != nil {
			logging.Error(ctx, "list reports for export failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list reports")
		}

		payload, err := marshalReportExport(records, format)
		if err != nil {
			return err
		}

		writer, closeFn, err := resolveExportWriter(cmd, outPath)
		if err != nil {
			return err
		}

		if _, err := writer.Write(payload); err != nil {
			_ = closeFn()
			return errs.Wrap(err, "write report export output")
		}
		if err := closeFn(); err != nil {
			return errs.Wrap(err, "close report export output")
		}
		logging.Info(ctx, "reports exported", slog.Int("count", len(records)), slog.String("format", format))
		return nil
	}),
}

type reportExportItem struct {
	ID             uint64 `json:"id" yaml:"id" toml:"id"`
	AIP            string `json:"aip_uuid" yaml:"aip_uuid" toml:"aip_uuid"`
	SessionID      string `json:"session_uuid" yaml:"session_uuid" toml:"session_uuid"`
	Outcome        string `json:"outcome" yaml:"outcome" toml:"outcome"`
	DeliveryStatus string `json:"delivery_status" yaml:"delivery_status" toml:"delivery_status"`
	Begun          string `json:"begun" yaml:"begun" toml:"begun"`
	Ended          string `json:"ended" yaml:"ended" toml:"ended"`
	Message        string `json:"message" yaml:"message" toml:"message"`
	Report         string `json:"report" yaml:"report" toml:"report"`
}

type reportExportDocument struct {
	Reports []reportExportItem `yaml:"reports" toml:"reports"`
}

func toReportExportItems(records []ports.ReportRecord) []reportExportItem {
	items := make([]reportExportItem, 0, len(records))
	for _, record := range records {
		items = append(items, reportExportItem{
			ID:             record.ID,
			AIP:            record.PackageUUID,
			SessionID:      record.SessionID,
			Outcome:        record.Outcome,
			DeliveryStatus: record.DeliveryStatus,
			Begun:          record.Begun,
			Ended:          record.Ended,
			Message:        record.Message,
			Report:         record.Report,
		})
	}
	return items
}

func marshalReportExport(records []ports.ReportRecord, format string) ([]byte, error) {
	items := toReportExportItems(records)

	switch format {
	case "json":
		payload, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return nil, errs.Wrap(err, "marshal report export json")
		}
		return append(payload, '\n'), nil
	case "jsonl":
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		for _, item := range items {
			if err := encoder.Encode(item); err != nil {
				return nil, errs.Wrap(err, "marshal report export jsonl")
			}
		}
		return buf.Bytes(), nil
	case "yaml":
		payload, err := yaml.Marshal(reportExportDocument{Reports: items})
		if err != nil {
			return nil, errs.Wrap(err, "marshal report export yaml")
		}
		return payload, nil
	case "toml":
		payload, err := toml.Marshal(reportExportDocument{Reports: items})
		if err != nil {
			return nil, errs.Wrap(err, "marshal report export toml")
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func resolveExportWriter(cmd *cobra.Command, outPath string) (io.Writer, func() error, error) {
	outPath = strings.TrimSpace(outPath)
	if outPath == "" || outPath == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	file, err := os.Create(outPath)
	if err != nil {
		return nil, nil, errs.Wrapf(err, "create export output file %s", outPath)
	}
	return file, file.Close, nil
}

func init() {
	reportsCmd.AddCommand(reportsExportCmd)
	reportsExportCmd.Flags().String("format", "json", "Export format: json|jsonl|yaml|toml")
	reportsExportCmd.Flags().String("out", "", "Output file path (default: stdout)")
	addReportQueryFlags(reportsExportCmd, 0)
}
