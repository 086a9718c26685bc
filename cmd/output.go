package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
)

// outputRecord is one line of scan output in json format.
type outputRecord struct {
	Time           string `json:"time"`
	Kind           string `json:"kind"`
	AIP            string `json:"aip_uuid,omitempty"`
	Outcome        string `json:"outcome,omitempty"`
	DeliveryStatus string `json:"delivery_status,omitempty"`
	ReportID       uint64 `json:"report_id,omitempty"`
	Message        string `json:"message"`
	Count          int    `json:"count,omitempty"`
}

type outputLine struct {
	at     time.Time
	record outputRecord
	detail string
}

// scanPrinter writes operator-facing scan lines. In sorted mode lines are
// held back until flush and written non-successes first.
type scanPrinter struct {
	out        io.Writer
	format     string
	timestamps bool
	debug      bool
	sorted     bool
	now        func() time.Time

	unsuccessful []outputLine
	successful   []outputLine
	err          error
}

func newScanPrinter(cmd *cobra.Command, sorted bool) *scanPrinter {
	return &scanPrinter{
		out:        cmd.OutOrStdout(),
		format:     outputFormat,
		timestamps: timestamps,
		debug:      debug,
		sorted:     sorted,
		now:        time.Now,
	}
}

// result prints the verdict line and, when the report could not be
// delivered, the delivery failure line.
func (p *scanPrinter) result(result domainfixity.ScanResult) {
	at := p.now()
	lines := []outputLine{{
		at: at,
		record: outputRecord{
			Kind:           "result",
			AIP:            result.AIP,
			Outcome:        string(result.Outcome),
			DeliveryStatus: string(result.DeliveryStatus),
			ReportID:       result.ReportID,
			Message:        domainfixity.ResultLine(result),
		},
	}}
	if result.DeliveryStatus == domainfixity.DeliveryFailed && result.Publishable() {
		lines = append(lines, outputLine{
			at: at,
			record: outputRecord{
				Kind:    "delivery_failed",
				AIP:     result.AIP,
				Message: domainfixity.DeliveryFailureLine(result.AIP),
			},
		})
	}
	p.emit(result.Succeeded(), lines...)
}

// internalError prints the verdict carried by a *ScanError, if any, and the
// internal error line.
func (p *scanPrinter) internalError(aip string, err error) {
	var scanErr *domainfixity.ScanError
	if errors.As(err, &scanErr) && scanErr.Result != nil {
		p.result(*scanErr.Result)
	}

	line := outputLine{
		at: p.now(),
		record: outputRecord{
			Kind:    "internal_error",
			AIP:     aip,
			Message: domainfixity.InternalErrorLine(aip, err),
		},
	}
	if p.debug {
		line.detail = errorDetail(err)
	}
	p.emit(false, line)
}

// summary prints the closing count. Nothing is printed for an empty batch.
func (p *scanPrinter) summary(attempted int) {
	if attempted <= 0 {
		return
	}
	p.flush()
	p.write(outputLine{
		at: p.now(),
		record: outputRecord{
			Kind:    "summary",
			Message: domainfixity.SummaryLine(attempted),
			Count:   attempted,
		},
	})
}

func (p *scanPrinter) flush() {
	for _, line := range p.unsuccessful {
		p.write(line)
	}
	for _, line := range p.successful {
		p.write(line)
	}
	p.unsuccessful = nil
	p.successful = nil
}

// Err returns the first write error.
func (p *scanPrinter) Err() error {
	return p.err
}

func (p *scanPrinter) emit(succeeded bool, lines ...outputLine) {
	if !p.sorted {
		for _, line := range lines {
			p.write(line)
		}
		return
	}
	if succeeded {
		p.successful = append(p.successful, lines...)
		return
	}
	p.unsuccessful = append(p.unsuccessful, lines...)
}

func (p *scanPrinter) write(line outputLine) {
	if p.err != nil {
		return
	}

	if p.format == "json" {
		line.record.Time = line.at.UTC().Format(time.RFC3339)
		payload, err := json.Marshal(line.record)
		if err != nil {
			p.err = errs.Wrap(err, "encode output line")
			return
		}
		if _, err := fmt.Fprintln(p.out, string(payload)); err != nil {
			p.err = errs.Wrap(err, "write output line")
		}
		return
	}

	text := line.record.Message
	if p.timestamps {
		text = domainfixity.TimestampPrefix(line.at) + text
	}
	if _, err := fmt.Fprintln(p.out, text); err != nil {
		p.err = errs.Wrap(err, "write output line")
		return
	}
	if line.detail != "" {
		if _, err := fmt.Fprintln(p.out, line.detail); err != nil {
			p.err = errs.Wrap(err, "write output line")
		}
	}
}

// errorDetail renders the error chain and any captured stack for --debug.
func errorDetail(err error) string {
	var b strings.Builder
	for _, msg := range errs.ErrorChainStrings(err) {
		b.WriteString("  caused by: ")
		b.WriteString(msg)
		b.WriteString("\n")
	}

	var panicErr *domainfixity.PanicError
	if errors.As(err, &panicErr) && len(panicErr.Stack) > 0 {
		b.Write(panicErr.Stack)
	}
	var stackErr *errs.StackError
	if errors.As(err, &stackErr) {
		b.Write(stackErr.Stack())
	}
	return strings.TrimRight(b.String(), "\n")
}
