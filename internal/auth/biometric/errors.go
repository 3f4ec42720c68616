package biometric

import (
	"errors"
	"fmt"
)

// Kind classifies a gate failure. The platform evaluator reports raw errors;
// Gate.Evaluate folds every one of them into a GateError so callers never see
// an unclassified platform error.
type Kind int

const (
	// KindUserCancelled means the user dismissed the prompt on purpose.
	// Callers must treat it as "nothing to surface", not as a failure.
	KindUserCancelled Kind = iota
	KindNotAvailable
	KindNotEnrolled
	KindLockedOut
	KindPasscodeNotSet
	KindAppCancelled
	KindSystemCancelled
	KindFailed
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindUserCancelled:
		return "user_cancelled"
	case KindNotAvailable:
		return "not_available"
	case KindNotEnrolled:
		return "not_enrolled"
	case KindLockedOut:
		return "locked_out"
	case KindPasscodeNotSet:
		return "passcode_not_set"
	case KindAppCancelled:
		return "app_cancelled"
	case KindSystemCancelled:
		return "system_cancelled"
	case KindFailed:
		return "failed"
	default:
		return "other"
	}
}

// GateError is the tagged result of a failed evaluation.
type GateError struct {
	Kind    Kind
	Message string
}

func (e *GateError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("biometric gate: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("biometric gate: %s", e.Kind)
}

// KindOf extracts the gate error kind, defaulting to KindOther for errors
// that did not come from the gate.
func KindOf(err error) Kind {
	var e *GateError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsUserCancelled reports whether err is a deliberate user dismissal.
func IsUserCancelled(err error) bool {
	var e *GateError
	return errors.As(err, &e) && e.Kind == KindUserCancelled
}

// Sentinel errors an Evaluator implementation returns to describe why the
// policy check or evaluation failed. Gate maps them onto GateError kinds.
var (
	ErrUserCancelled   = errors.New("user cancelled")
	ErrNotAvailable    = errors.New("biometry not available")
	ErrNotEnrolled     = errors.New("biometry not enrolled")
	ErrLockedOut       = errors.New("biometry locked out")
	ErrPasscodeNotSet  = errors.New("device passcode not set")
	ErrAppCancelled    = errors.New("cancelled by app")
	ErrSystemCancelled = errors.New("cancelled by system")
	ErrFailed          = errors.New("biometry did not match")
)
