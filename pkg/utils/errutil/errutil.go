package errutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// Handle logs the error, reports it to Sentry when configured, and returns
// it unchanged. Used at component boundaries where the error is reported
// but the flow continues.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	capture(err, ge)

	return err
}

// HandleHTTP logs the error and writes an HTTP error response. Server-side
// failures are also reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	if statusCode >= http.StatusInternalServerError {
		capture(err, ge)
	}

	http.Error(w, err.Error(), statusCode)
}

// capture is a no-op when Sentry has not been initialized.
func capture(err error, ge *goerr.Error) {
	hub := sentry.CurrentHub().Clone()
	if ge != nil {
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext("error values", sentry.Context(ge.Values()))
		})
	}
	hub.CaptureException(err)
}
