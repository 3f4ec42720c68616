// Package autherr defines the error taxonomy surfaced by the auth layer.
// Every backend, gate, and vault failure is mapped into one of these codes
// before it reaches published state, so the presentation layer only ever
// deals with a (code, message) pair.
package autherr

import (
	"errors"
	"fmt"
)

// Code tags a user-facing auth failure category.
type Code string

const (
	CodeInvalidCredentials  Code = "invalid_credentials"
	CodeAccountNotFound     Code = "account_not_found"
	CodeAccountDisabled     Code = "account_disabled"
	CodeInvalidInput        Code = "invalid_input"
	CodeAccountExists       Code = "account_exists"
	CodeWeakSecret          Code = "weak_secret"
	CodeNetwork             Code = "network"
	CodeRateLimited         Code = "rate_limited"
	CodeOperationNotAllowed Code = "operation_not_allowed"
	CodeGateUnavailable     Code = "gate_unavailable"
	CodeGateNotEnrolled     Code = "gate_not_enrolled"
	CodeGateLockedOut       Code = "gate_locked_out"

	// CodeGateCancelled is silent: the user backed out of the biometric
	// prompt on purpose, so nothing is shown and any visible error is
	// cleared instead.
	CodeGateCancelled Code = "gate_cancelled"

	CodeVaultCorrupted Code = "vault_corrupted"
	CodeBusy           Code = "busy"
	CodeUnknown        Code = "unknown"
)

// Error carries a taxonomy code, a human-readable message, and optionally the
// underlying cause for logs. Match with errors.As or the Is helper.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New builds a taxonomy error with the default message for the code.
func New(code Code) *Error {
	return &Error{Code: code, Message: defaultMessage(code)}
}

// Newf builds a taxonomy error with a custom message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a taxonomy error, keeping the default message.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Message: defaultMessage(code), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two taxonomy errors by code alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the taxonomy code from err, or CodeUnknown when err was
// never mapped. A nil err has no code; callers must check first.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// MessageOf extracts the user-facing message, falling back to a generic one
// for unmapped errors so raw internals are never shown.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return defaultMessage(CodeUnknown)
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func defaultMessage(code Code) string {
	switch code {
	case CodeInvalidCredentials:
		return "Incorrect email or password. Please try again."
	case CodeAccountNotFound:
		return "No account found with this email."
	case CodeAccountDisabled:
		return "This account has been disabled."
	case CodeInvalidInput:
		return "Please fill in all required fields."
	case CodeAccountExists:
		return "An account with this email already exists."
	case CodeWeakSecret:
		return "Password is too weak. Use at least 6 characters."
	case CodeNetwork:
		return "Network error. Check your connection and try again."
	case CodeRateLimited:
		return "Too many attempts. Please try again later."
	case CodeOperationNotAllowed:
		return "This sign-in method is not enabled."
	case CodeGateUnavailable:
		return "Biometric authentication is not available on this device."
	case CodeGateNotEnrolled:
		return "No biometrics enrolled. Set up Face ID or fingerprint in device settings."
	case CodeGateLockedOut:
		return "Biometrics locked out. Unlock your device with its passcode first."
	case CodeGateCancelled:
		return ""
	case CodeVaultCorrupted:
		return "Saved sign-in data was invalid and has been cleared. Please sign in with your password."
	case CodeBusy:
		return "Another sign-in operation is already in progress."
	default:
		return "Something went wrong. Please try again."
	}
}
