package fixity

import "time"

type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeFailure       Outcome = "failure"
	OutcomeIndeterminate Outcome = "indeterminate"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeIndeterminate:
		return true
	default:
		return false
	}
}

type DeliveryStatus string

const (
	DeliveryNotAttempted DeliveryStatus = "not_attempted"
	DeliveryDelivered    DeliveryStatus = "delivered"
	DeliveryFailed       DeliveryStatus = "failed"
)

func (d DeliveryStatus) Valid() bool {
	switch d {
	case DeliveryNotAttempted, DeliveryDelivered, DeliveryFailed:
		return true
	default:
		return false
	}
}

// PackageSummary is one eligible entry of the storage service catalog.
type PackageSummary struct {
	UUID        string
	PackageType string
	Status      string
}

// ScanResult is the outcome of one attempt to verify a package.
//
// RawPayload holds the remote verification body verbatim, or the
// synthesized failure detail when no verdict was obtained. Report is the
// durable JSON document derived from it with started/finished attached.
// Verified is true only when the verification endpoint answered 200 with a
// decodable body. Answered is true whenever the storage service responded
// to the verification request at all.
type ScanResult struct {
	AIP            string
	PackageID      uint64
	ReportID       uint64
	SessionID      string
	StartedAt      time.Time
	FinishedAt     time.Time
	Outcome        Outcome
	Message        string
	RawPayload     []byte
	Report         []byte
	DeliveryStatus DeliveryStatus
	Verified       bool
	Answered       bool
}

func (r ScanResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

func (r ScanResult) Persisted() bool {
	return r.ReportID != 0
}

func (r ScanResult) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Publishable reports whether the result has a report worth sending: the
// storage service answered the verification request, even if only with an
// error status. Lookup and transport failures are kept locally.
func (r ScanResult) Publishable() bool {
	return r.Answered && len(r.Report) > 0
}

// Eligible reports whether a catalog entry is a fully stored AIP.
func Eligible(packageType string, status string) bool {
	return packageType == "AIP" && status == "UPLOADED"
}

// Truncate normalizes a timestamp to UTC with second precision.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
