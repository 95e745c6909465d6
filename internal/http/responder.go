package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/logging"
)

var (
	errBadRequestBody = errors.New("request body is not valid JSON")
	errInvalidID      = errors.New("identifier in request path is not a valid number")
	errInvalidDate    = errors.New("date must be formatted as YYYY-MM-DD")
)

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
		r.loggerFor(ctx).ErrorContext(ctx, "request rejected", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates the error taxonomy of the application and
// auth packages into HTTP status codes. Corrupted store data is deliberately
// a 500, not a 401: the client's credential may be fine.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "unknown error"})
		return
	}

	logger := r.loggerFor(ctx).With("error_kind", application.ErrorKind(err))

	var invalidToken *auth.InvalidTokenError
	var authenticationFailed *auth.AuthenticationFailedError
	var permissionDenied *auth.PermissionDeniedError
	var validation *application.ValidationError

	switch {
	case errors.Is(err, auth.ErrInvalidDataInStore):
		logger.ErrorContext(ctx, "authorization data corrupted", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})

	case errors.Is(err, auth.ErrNoToken):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_TOKEN_MISSING",
			Message:   "a session token is required for this operation",
		})

	case errors.As(err, &invalidToken):
		logger.InfoContext(ctx, "session token rejected", "error", err)
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_TOKEN_INVALID",
			Message:   "the session token is invalid or expired, please log in again",
		})

	case errors.As(err, &authenticationFailed):
		message := "the passphrase does not exist"
		if authenticationFailed.Expired {
			message = "the passphrase is not valid at this time"
		}
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_FAILED",
			Message:   message,
		})

	case errors.As(err, &permissionDenied):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "this session does not permit the operation",
		})

	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource does not exist"})

	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "a conflicting resource already exists"})

	case errors.Is(err, application.ErrInUse):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "the resource is still referenced and cannot be deleted"})

	case errors.As(err, &validation):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the submitted data is invalid",
			Errors:  validation.FieldErrors,
		})

	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}
