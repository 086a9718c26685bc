package fixity

import (
	"fmt"
	"time"
)

// ScanMessage is the one-line summary of a verdict.
func ScanMessage(aip string, outcome Outcome, message string) string {
	var verb string
	switch outcome {
	case OutcomeSuccess:
		verb = "succeeded"
	case OutcomeFailure:
		verb = "failed"
	case OutcomeIndeterminate:
		verb = "didn't run"
	default:
		verb = "returned an unknown status"
	}

	out := fmt.Sprintf("Fixity scan %s for AIP: %s", verb, aip)
	if message != "" {
		out += " (" + message + ")"
	}
	return out
}

// ResultLine is the operator-facing line for a result. Results without a
// remote verdict show the failure sentence directly.
func ResultLine(r ScanResult) string {
	if !r.Verified && r.Message != "" {
		return r.Message
	}
	return ScanMessage(r.AIP, r.Outcome, r.Message)
}

func InternalErrorLine(aip string, err error) string {
	return fmt.Sprintf("Internal error encountered while scanning AIP %s (%s)", aip, InternalErrorKind(err))
}

func PreScanFailureLine(endpoint string) string {
	return fmt.Sprintf("Unable to POST pre-scan report to %s", endpoint)
}

func DeliveryFailureLine(aip string) string {
	return fmt.Sprintf("Unable to POST report for AIP %s to remote service", aip)
}

func SummaryLine(attempted int) string {
	return fmt.Sprintf("Successfully scanned %d AIPs", attempted)
}

// TimestampPrefix renders the optional "[YYYY-MM-DD HH:MM:SS UTC] " prefix.
func TimestampPrefix(t time.Time) string {
	return "[" + t.UTC().Format("2006-01-02 15:04:05") + " UTC] "
}
