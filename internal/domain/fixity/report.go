package fixity

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var errMalformedBody = errors.New("fixity response is not a JSON object")

// Verdict is what a 200 verification response says about a package.
// Finished is zero when the remote did not supply a usable timestamp.
type Verdict struct {
	Outcome  Outcome
	Message  string
	Finished time.Time
}

// ClassifyVerification reads a verification response body. A missing,
// null or non-boolean success flag means no verdict was reached.
func ClassifyVerification(body []byte) (Verdict, error) {
	if !gjson.ValidBytes(body) {
		return Verdict{}, errMalformedBody
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return Verdict{}, errMalformedBody
	}

	verdict := Verdict{Outcome: OutcomeIndeterminate}
	switch doc.Get("success").Type {
	case gjson.True:
		verdict.Outcome = OutcomeSuccess
	case gjson.False:
		verdict.Outcome = OutcomeFailure
	}

	if message := doc.Get("message"); message.Type == gjson.String {
		verdict.Message = message.String()
	}
	if finished, ok := parseRemoteTimestamp(doc.Get("timestamp")); ok {
		verdict.Finished = finished
	}
	return verdict, nil
}

var remoteTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

func parseRemoteTimestamp(value gjson.Result) (time.Time, bool) {
	switch value.Type {
	case gjson.Number:
		if value.Int() <= 0 {
			return time.Time{}, false
		}
		return time.Unix(value.Int(), 0).UTC(), true
	case gjson.String:
		for _, layout := range remoteTimestampLayouts {
			parsed, err := time.Parse(layout, value.String())
			if err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// BuildReport attaches started/finished Unix timestamps to a report payload
// and defaults success to null. Every other field is passed through as is.
func BuildReport(payload []byte, started time.Time, finished time.Time) ([]byte, error) {
	out := append([]byte(nil), payload...)

	var err error
	if out, err = sjson.SetBytes(out, "started", started.Unix()); err != nil {
		return nil, fmt.Errorf("set started: %w", err)
	}
	if out, err = sjson.SetBytes(out, "finished", finished.Unix()); err != nil {
		return nil, fmt.Errorf("set finished: %w", err)
	}
	if !gjson.GetBytes(out, "success").Exists() {
		if out, err = sjson.SetRawBytes(out, "success", []byte("null")); err != nil {
			return nil, fmt.Errorf("set success: %w", err)
		}
	}
	return out, nil
}

// BuildPreScanBody is the notice sent before verification starts.
func BuildPreScanBody(started time.Time, sessionID string) []byte {
	body, _ := sjson.SetBytes([]byte(`{}`), "started", started.Unix())
	if sessionID != "" {
		body, _ = sjson.SetBytes(body, "session_uuid", sessionID)
	}
	return body
}

// BuildPostScanBody is the full report plus the session id, if any.
func BuildPostScanBody(report []byte, sessionID string) ([]byte, error) {
	if sessionID == "" {
		return append([]byte(nil), report...), nil
	}
	body, err := sjson.SetBytes(append([]byte(nil), report...), "session_uuid", sessionID)
	if err != nil {
		return nil, fmt.Errorf("set session_uuid: %w", err)
	}
	return body, nil
}

// FailurePayload is the raw payload recorded when no verdict was reached.
func FailurePayload(message string) []byte {
	body, _ := sjson.SetBytes([]byte(`{"success":null}`), "message", message)
	return body
}

func malformedPayload(message string, body []byte) []byte {
	out := FailurePayload(message)
	out, _ = sjson.SetBytes(out, "body", string(body))
	return out
}

// NewIndeterminateResult builds the result of a scan that never obtained a
// verification response. cause supplies the message.
func NewIndeterminateResult(aip string, sessionID string, started time.Time, finished time.Time, cause error) ScanResult {
	started, finished = orderedTimes(started, finished)

	message := "Fixity scan could not be completed"
	if cause != nil {
		message = cause.Error()
	}

	payload := FailurePayload(message)
	report, err := BuildReport(payload, started, finished)
	if err != nil {
		report = payload
	}

	return ScanResult{
		AIP:            aip,
		SessionID:      sessionID,
		StartedAt:      started,
		FinishedAt:     finished,
		Outcome:        OutcomeIndeterminate,
		Message:        message,
		RawPayload:     payload,
		Report:         report,
		DeliveryStatus: DeliveryNotAttempted,
	}
}

// NewVerifiedResult builds the result of a 200 verification response.
// observed is the local completion time; the remote timestamp wins when it
// is usable and not earlier than started.
func NewVerifiedResult(aip string, sessionID string, started time.Time, observed time.Time, body []byte) ScanResult {
	started, observed = orderedTimes(started, observed)

	verdict, err := ClassifyVerification(body)
	if err != nil {
		message := fmt.Sprintf("Storage service returned a malformed fixity response for AIP %s", aip)
		payload := malformedPayload(message, body)
		report, buildErr := BuildReport(payload, started, observed)
		if buildErr != nil {
			report = payload
		}
		return ScanResult{
			AIP:            aip,
			SessionID:      sessionID,
			StartedAt:      started,
			FinishedAt:     observed,
			Outcome:        OutcomeIndeterminate,
			Message:        message,
			RawPayload:     payload,
			Report:         report,
			DeliveryStatus: DeliveryNotAttempted,
			Answered:       true,
		}
	}

	finished := observed
	if !verdict.Finished.IsZero() && !verdict.Finished.Before(started) {
		finished = Truncate(verdict.Finished)
	}

	report, err := BuildReport(body, started, finished)
	if err != nil {
		report = append([]byte(nil), body...)
	}

	return ScanResult{
		AIP:            aip,
		SessionID:      sessionID,
		StartedAt:      started,
		FinishedAt:     finished,
		Outcome:        verdict.Outcome,
		Message:        verdict.Message,
		RawPayload:     append([]byte(nil), body...),
		Report:         report,
		DeliveryStatus: DeliveryNotAttempted,
		Verified:       true,
		Answered:       true,
	}
}

// NewVerificationFailureResult builds the result of a verification request
// that did not yield a 200. The result is marked answered when the storage
// service replied with an error status.
func NewVerificationFailureResult(aip string, sessionID string, started time.Time, finished time.Time, cause error) ScanResult {
	result := NewIndeterminateResult(aip, sessionID, started, finished, cause)
	var se *ServiceError
	result.Answered = errors.As(cause, &se) && se.StatusCode != 0
	return result
}

func orderedTimes(started time.Time, finished time.Time) (time.Time, time.Time) {
	started = Truncate(started)
	finished = Truncate(finished)
	if finished.Before(started) {
		finished = started
	}
	return started, finished
}
