package cmd

import (
	"context"
	"errors"
	"strconv"

	"github.com/artefactual/fixity/internal/bootstrap/config"
	domainfixity "github.com/artefactual/fixity/internal/domain/fixity"
)

const (
	exitOK          = 0
	exitScanFailed  = 1
	exitUsage       = 2
	exitAborted     = 3
	exitInternal    = 4
	exitInterrupted = 130
)

// ExitError pins the process exit code of a command error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, domainfixity.ErrInvalidIdentifier),
		errors.Is(err, domainfixity.ErrTypeMismatch),
		errors.Is(err, config.ErrInvalidConfig):
		return exitUsage
	case errors.Is(err, domainfixity.ErrCatalogUnavailable):
		return exitAborted
	default:
		return exitInternal
	}
}
