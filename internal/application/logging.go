package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mhthies/online-kueaplan-sub000/internal/auth"
	"github.com/mhthies/online-kueaplan-sub000/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and typed errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var permissionDenied *auth.PermissionDeniedError
	var authenticationFailed *auth.AuthenticationFailedError
	var invalidToken *auth.InvalidTokenError
	var validation *ValidationError

	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInUse):
		return "in_use"
	case errors.Is(err, auth.ErrNoToken):
		return "no_token"
	case errors.Is(err, auth.ErrInvalidDataInStore):
		return "invalid_data_in_store"
	case errors.As(err, &permissionDenied):
		return "permission_denied"
	case errors.As(err, &authenticationFailed):
		return "authentication_failed"
	case errors.As(err, &invalidToken):
		return "invalid_token"
	case errors.As(err, &validation):
		return "validation"
	}

	return "unexpected"
}
