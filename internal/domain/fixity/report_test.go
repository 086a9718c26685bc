package fixity

import (
	"errors"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

const testAIP = "3f1e6c1a-5a7b-4c4e-9c2f-0c1d2e3f4a5b"

func TestClassifyVerification(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want Outcome
	}{
		{name: "success true", body: `{"success": true, "message": "ok"}`, want: OutcomeSuccess},
		{name: "success false", body: `{"success": false, "message": "bad"}`, want: OutcomeFailure},
		{name: "success null", body: `{"success": null}`, want: OutcomeIndeterminate},
		{name: "success missing", body: `{"message": "?"}`, want: OutcomeIndeterminate},
		{name: "success string", body: `{"success": "true"}`, want: OutcomeIndeterminate},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			verdict, err := ClassifyVerification([]byte(testCase.body))
			if err != nil {
				t.Fatalf("ClassifyVerification() error = %v", err)
			}
			if verdict.Outcome != testCase.want {
				t.Fatalf("ClassifyVerification() outcome = %q, want %q", verdict.Outcome, testCase.want)
			}
		})
	}
}

func TestClassifyVerificationRejectsMalformedBodies(t *testing.T) {
	for _, body := range []string{"", "<html>", "[1,2]", `"success"`} {
		if _, err := ClassifyVerification([]byte(body)); err == nil {
			t.Fatalf("ClassifyVerification(%q) expected error", body)
		}
	}
}

func TestClassifyVerificationReadsTimestamp(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want time.Time
	}{
		{name: "rfc3339", body: `{"success":true,"timestamp":"2018-01-01T03:00:00Z"}`, want: time.Date(2018, 1, 1, 3, 0, 0, 0, time.UTC)},
		{name: "naive iso", body: `{"success":true,"timestamp":"2018-01-01T03:00:00.123456"}`, want: time.Date(2018, 1, 1, 3, 0, 0, 123456000, time.UTC)},
		{name: "unix", body: `{"success":true,"timestamp":1514775600}`, want: time.Date(2018, 1, 1, 3, 0, 0, 0, time.UTC)},
		{name: "null", body: `{"success":true,"timestamp":null}`},
		{name: "garbage", body: `{"success":true,"timestamp":"yesterday"}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			verdict, err := ClassifyVerification([]byte(testCase.body))
			if err != nil {
				t.Fatalf("ClassifyVerification() error = %v", err)
			}
			if !verdict.Finished.Equal(testCase.want) {
				t.Fatalf("ClassifyVerification() finished = %v, want %v", verdict.Finished, testCase.want)
			}
		})
	}
}

func TestBuildReportKeepsRemoteFields(t *testing.T) {
	started := time.Unix(1514775600, 0).UTC()
	finished := started.Add(5 * time.Second)
	payload := []byte(`{"success":false,"message":"files changed","failures":{"files":{"missing":["a"],"changed":["b"],"untracked":[]}},"timestamp":null}`)

	report, err := BuildReport(payload, started, finished)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}

	if got := gjson.GetBytes(report, "started").Int(); got != 1514775600 {
		t.Fatalf("started = %d", got)
	}
	if got := gjson.GetBytes(report, "finished").Int(); got != 1514775605 {
		t.Fatalf("finished = %d", got)
	}
	if got := gjson.GetBytes(report, "failures.files.missing.0").String(); got != "a" {
		t.Fatalf("failures.files.missing.0 = %q", got)
	}
	if got := gjson.GetBytes(report, "failures.files.changed.0").String(); got != "b" {
		t.Fatalf("failures.files.changed.0 = %q", got)
	}
	if gjson.GetBytes(report, "success").Type != gjson.False {
		t.Fatalf("success = %s", gjson.GetBytes(report, "success").Raw)
	}
	if string(payload) != `{"success":false,"message":"files changed","failures":{"files":{"missing":["a"],"changed":["b"],"untracked":[]}},"timestamp":null}` {
		t.Fatalf("BuildReport() mutated its input: %s", payload)
	}
}

func TestBuildReportDefaultsSuccessToNull(t *testing.T) {
	report, err := BuildReport([]byte(`{"message":"x"}`), time.Unix(10, 0), time.Unix(20, 0))
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	success := gjson.GetBytes(report, "success")
	if !success.Exists() || success.Type != gjson.Null {
		t.Fatalf("success = %q, want null", success.Raw)
	}
}

func TestBuildPreScanBody(t *testing.T) {
	started := time.Unix(1514775600, 0)

	body := BuildPreScanBody(started, "")
	if string(body) != `{"started":1514775600}` {
		t.Fatalf("BuildPreScanBody() = %s", body)
	}

	body = BuildPreScanBody(started, "session-1")
	if got := gjson.GetBytes(body, "session_uuid").String(); got != "session-1" {
		t.Fatalf("session_uuid = %q", got)
	}
}

func TestBuildPostScanBody(t *testing.T) {
	report := []byte(`{"success":true,"started":1,"finished":2}`)

	body, err := BuildPostScanBody(report, "")
	if err != nil {
		t.Fatalf("BuildPostScanBody() error = %v", err)
	}
	if string(body) != string(report) {
		t.Fatalf("BuildPostScanBody() = %s", body)
	}

	body, err = BuildPostScanBody(report, "session-1")
	if err != nil {
		t.Fatalf("BuildPostScanBody() error = %v", err)
	}
	if got := gjson.GetBytes(body, "session_uuid").String(); got != "session-1" {
		t.Fatalf("session_uuid = %q", got)
	}
	if !gjson.GetBytes(body, "success").Bool() {
		t.Fatalf("success lost: %s", body)
	}
}

func TestNewVerifiedResultPrefersRemoteTimestamp(t *testing.T) {
	started := time.Date(2018, 1, 1, 3, 0, 0, 0, time.UTC)
	observed := started.Add(2 * time.Second)

	result := NewVerifiedResult(testAIP, "s", started, observed, []byte(`{"success":true,"timestamp":"2018-01-01T03:00:09Z"}`))
	if result.Outcome != OutcomeSuccess || !result.Verified {
		t.Fatalf("result = %+v", result)
	}
	if want := started.Add(9 * time.Second); !result.FinishedAt.Equal(want) {
		t.Fatalf("FinishedAt = %v, want %v", result.FinishedAt, want)
	}
}

func TestNewVerifiedResultIgnoresTimestampBeforeStart(t *testing.T) {
	started := time.Date(2018, 1, 1, 3, 0, 0, 0, time.UTC)
	observed := started.Add(2 * time.Second)

	result := NewVerifiedResult(testAIP, "s", started, observed, []byte(`{"success":false,"timestamp":"2017-12-31T00:00:00Z"}`))
	if result.Outcome != OutcomeFailure {
		t.Fatalf("Outcome = %q", result.Outcome)
	}
	if !result.FinishedAt.Equal(observed) {
		t.Fatalf("FinishedAt = %v, want %v", result.FinishedAt, observed)
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Fatalf("FinishedAt before StartedAt")
	}
}

func TestNewVerifiedResultMalformedBodyIsIndeterminate(t *testing.T) {
	now := time.Now()
	result := NewVerifiedResult(testAIP, "s", now, now, []byte("<html>oops</html>"))
	if result.Outcome != OutcomeIndeterminate {
		t.Fatalf("Outcome = %q", result.Outcome)
	}
	if result.Verified {
		t.Fatalf("Verified = true for malformed body")
	}
	if got := gjson.GetBytes(result.Report, "body").String(); got != "<html>oops</html>" {
		t.Fatalf("report body = %q", got)
	}
	if !result.Publishable() {
		t.Fatalf("malformed 200 response must be publishable")
	}
}

func TestNewIndeterminateResultRecordsCause(t *testing.T) {
	now := time.Now()
	cause := NewStorageStatusError("http://ss/", OpLookup(testAIP), 401)

	result := NewIndeterminateResult(testAIP, "s", now, now.Add(-time.Hour), cause)
	if result.Outcome != OutcomeIndeterminate {
		t.Fatalf("Outcome = %q", result.Outcome)
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Fatalf("FinishedAt before StartedAt")
	}
	if got := gjson.GetBytes(result.RawPayload, "message").String(); got != cause.Error() {
		t.Fatalf("payload message = %q", got)
	}
	if gjson.GetBytes(result.RawPayload, "success").Type != gjson.Null {
		t.Fatalf("payload success = %s", gjson.GetBytes(result.RawPayload, "success").Raw)
	}
	if result.DeliveryStatus != DeliveryNotAttempted {
		t.Fatalf("DeliveryStatus = %q", result.DeliveryStatus)
	}
}

func TestPublishable(t *testing.T) {
	now := time.Now()
	if NewIndeterminateResult(testAIP, "s", now, now, errors.New("refused")).Publishable() {
		t.Fatalf("synthesized indeterminate result must not be publishable")
	}
	if !NewVerifiedResult(testAIP, "s", now, now, []byte(`{"success":false}`)).Publishable() {
		t.Fatalf("failure result must be publishable")
	}
	if !NewVerifiedResult(testAIP, "s", now, now, []byte(`{"message":"no verdict"}`)).Publishable() {
		t.Fatalf("verified indeterminate result must be publishable")
	}

	remote := NewStorageStatusError("http://ss/", OpVerify(testAIP), 500)
	if !NewVerificationFailureResult(testAIP, "s", now, now, remote).Publishable() {
		t.Fatalf("verification error status must be publishable")
	}
	transport := NewStorageTransportError("http://ss/", OpVerify(testAIP), errors.New("refused"))
	if NewVerificationFailureResult(testAIP, "s", now, now, transport).Publishable() {
		t.Fatalf("unanswered verification must not be publishable")
	}
}

func TestInternalErrorKind(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{err: &PanicError{AIP: testAIP, Value: "boom"}, want: "panic"},
		{err: NewStorageTransportError("http://ss/", OpVerify(testAIP), errors.New("refused")), want: "TransportError"},
		{err: &ScanError{AIP: testAIP, Err: errors.New("db closed")}, want: "ScanError"},
	}

	for _, testCase := range testCases {
		if got := InternalErrorKind(testCase.err); got != testCase.want {
			t.Fatalf("InternalErrorKind(%v) = %q, want %q", testCase.err, got, testCase.want)
		}
	}
}
