package fixity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	KindTransport     ErrorKind = "TransportError"
	KindAuth          ErrorKind = "AuthError"
	KindRemote        ErrorKind = "RemoteError"
	KindReportService ErrorKind = "ReportServiceError"
)

type opKind int

const (
	opList opKind = iota
	opLookup
	opVerify
)

// StorageOp names the storage service request an error came from.
type StorageOp struct {
	kind opKind
	aip  string
}

func OpList() StorageOp { return StorageOp{kind: opList} }

func OpLookup(aip string) StorageOp { return StorageOp{kind: opLookup, aip: aip} }

func OpVerify(aip string) StorageOp { return StorageOp{kind: opVerify, aip: aip} }

func (op StorageOp) AIP() string { return op.aip }

func (op StorageOp) Verification() bool { return op.kind == opVerify }

func (op StorageOp) String() string {
	switch op.kind {
	case opLookup:
		return "requesting AIP " + op.aip
	case opVerify:
		return "scanning AIP " + op.aip
	default:
		return "requesting AIPs"
	}
}

// ServiceError is a failed exchange with the storage or reporting service.
// Error returns the operator-facing sentence.
type ServiceError struct {
	Kind       ErrorKind
	URL        string
	AIP        string
	StatusCode int
	Sentence   string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Sentence != "" {
		return e.Sentence
	}
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewStorageTransportError reports that the storage service could not be
// reached at all.
func NewStorageTransportError(baseURL string, op StorageOp, err error) *ServiceError {
	return &ServiceError{
		Kind:     KindTransport,
		URL:      baseURL,
		AIP:      op.aip,
		Sentence: fmt.Sprintf("Unable to connect to storage service instance at %s (is it running?)", baseURL),
		Err:      err,
	}
}

// NewStorageStatusError maps a non-200 storage service response.
func NewStorageStatusError(baseURL string, op StorageOp, status int) *ServiceError {
	e := &ServiceError{
		Kind:       KindRemote,
		URL:        baseURL,
		AIP:        op.aip,
		StatusCode: status,
	}

	switch status {
	case http.StatusUnauthorized:
		e.Kind = KindAuth
		e.Sentence = fmt.Sprintf("Storage service at %q failed authentication while %s", baseURL, op)
	case http.StatusNotFound:
		if op.Verification() {
			e.Sentence = fmt.Sprintf("A fixity scan could not be started for the AIP with uuid %q", op.aip)
		} else {
			e.Sentence = fmt.Sprintf("Storage service at %q returned 404 while %s", baseURL, op)
		}
	case http.StatusInternalServerError:
		e.Sentence = fmt.Sprintf("Storage service at %q encountered an internal error while %s", baseURL, op)
	case http.StatusGatewayTimeout:
		e.Sentence = fmt.Sprintf("Storage service at %q encountered a gateway timeout while %s", baseURL, op)
	default:
		e.Sentence = fmt.Sprintf("Storage service at %q returned %d while %s", baseURL, status, op)
	}
	return e
}

// NewStorageDecodeError reports a 200 response whose body could not be read.
func NewStorageDecodeError(baseURL string, op StorageOp, err error) *ServiceError {
	return &ServiceError{
		Kind:       KindRemote,
		URL:        baseURL,
		AIP:        op.aip,
		StatusCode: http.StatusOK,
		Sentence:   fmt.Sprintf("Storage service at %q returned a malformed response while %s", baseURL, op),
		Err:        err,
	}
}

// NewReportServiceError reports a failed delivery to the reporting service.
// A zero status means the service could not be reached.
func NewReportServiceError(endpoint string, aip string, status int, err error) *ServiceError {
	e := &ServiceError{
		Kind:       KindReportService,
		URL:        endpoint,
		AIP:        aip,
		StatusCode: status,
		Err:        err,
	}

	switch status {
	case 0:
		e.Sentence = fmt.Sprintf("Unable to connect to report service at %s", endpoint)
	case http.StatusNotFound:
		e.Sentence = fmt.Sprintf("Report service returned 404 when attempting to POST report for AIP %s", aip)
	case http.StatusInternalServerError:
		e.Sentence = fmt.Sprintf("Report service encountered an internal error when attempting to POST report for AIP %s", aip)
	default:
		e.Sentence = fmt.Sprintf("Report service returned %d when attempting to POST report for AIP %s", status, aip)
	}
	return e
}

func IsKind(err error, kind ErrorKind) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == kind
}

// ScanError is returned by a scan that could not complete its bookkeeping.
// Result is set when a ScanResult was produced before the failure, so the
// caller still has the verdict even if it was not recorded.
type ScanError struct {
	AIP    string
	Err    error
	Result *ScanResult
}

func (e *ScanError) Error() string {
	if e.AIP == "" {
		return "scan: " + e.Err.Error()
	}
	return "scan AIP " + e.AIP + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panicking scan.
type PanicError struct {
	AIP   string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while scanning AIP %s: %v", e.AIP, e.Value)
}

// InternalErrorKind names the class of an error that escaped a scan.
func InternalErrorKind(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return "panic"
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	var sc *ScanError
	if errors.As(err, &sc) {
		return "ScanError"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
