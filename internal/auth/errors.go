package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEncoding is returned when a session token is not valid base64.
	ErrInvalidEncoding = errors.New("auth: token encoding is not valid base64")
	// ErrInvalidStructure is returned when the decoded token payload has an
	// impossible length.
	ErrInvalidStructure = errors.New("auth: token structure is malformed")
	// ErrSignatureVerificationFailed is returned when the token tag does not
	// match the payload.
	ErrSignatureVerificationFailed = errors.New("auth: token signature verification failed")
	// ErrExpiredToken is returned when the token timestamp is too old or lies
	// in the future.
	ErrExpiredToken = errors.New("auth: token has expired")
	// ErrNoToken is returned when a request carries no session token at all.
	ErrNoToken = errors.New("auth: no session token provided")
	// ErrInvalidDataInStore indicates corrupted authorization data in the
	// passphrase store. Unlike the other errors it is a server fault.
	ErrInvalidDataInStore = errors.New("auth: invalid data in passphrase store")
)

// InvalidTokenError wraps a token-level failure encountered while handling a
// request credential.
type InvalidTokenError struct {
	Err error
}

// Error implements the error interface.
func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("auth: invalid session token: %v", e.Err)
}

// Unwrap exposes the underlying token error for errors.Is checks.
func (e *InvalidTokenError) Unwrap() error {
	return e.Err
}

// AuthenticationFailedError is returned when a submitted secret does not
// grant access. Expired distinguishes a known passphrase outside its
// validity window from an unknown secret.
type AuthenticationFailedError struct {
	Expired bool
}

// Error implements the error interface.
func (e *AuthenticationFailedError) Error() string {
	if e.Expired {
		return "auth: passphrase is not valid at this time"
	}
	return "auth: passphrase does not exist"
}

// PermissionDeniedError is returned when a resolved session does not satisfy
// a required privilege. Privilege is PrivilegeUnspecified when the session
// resolved to no roles at all; EventID is zero for instance-level checks.
type PermissionDeniedError struct {
	Privilege Privilege
	EventID   int64
}

// Error implements the error interface.
func (e *PermissionDeniedError) Error() string {
	if e.Privilege == PrivilegeUnspecified {
		return fmt.Sprintf("auth: permission denied for event %d", e.EventID)
	}
	return fmt.Sprintf("auth: privilege %s denied for event %d", e.Privilege, e.EventID)
}
