package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// InternalErrorMessage is the only message clients see for unexpected faults.
const InternalErrorMessage = "An internal server error occurred!"

// Status maps a domain error onto its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as an envelope. Unknown errors are logged and
// reported as a generic 500 without detail.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("unhandled request error", slog.Any("error", err))
		}
		Fail(w, status, InternalErrorMessage)
		return
	}
	Fail(w, status, shared.PublicMessage(err, http.StatusText(status)))
}

// Recoverer converts panics into the generic 500 envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if logger != nil {
					logger.Error("panic recovered", slog.Any("panic", rec), slog.String("path", r.URL.Path))
				}
				Fail(w, http.StatusInternalServerError, InternalErrorMessage)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
