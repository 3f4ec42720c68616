// Package biometric wraps the platform biometric evaluator behind a small
// gate: "is biometric hardware usable right now" and "did a live human just
// prove presence". The platform side is injected so tests and the demo CLI
// can supply their own evaluators.
package biometric

import (
	"context"
	"errors"
	"fmt"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/logging"
)

// Capability describes the biometric hardware the device exposes.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityFingerprint
	CapabilityFace
	CapabilityIris
)

func (c Capability) String() string {
	switch c {
	case CapabilityFingerprint:
		return "fingerprint"
	case CapabilityFace:
		return "face"
	case CapabilityIris:
		return "iris"
	default:
		return "none"
	}
}

// Evaluator is the platform collaborator.
//
// Contract:
//   - Capability: pure, side-effect free, callable before any permission
//     prompt has ever been shown.
//   - CanEvaluate: nil if the device can run a biometric check right now;
//     otherwise one of the sentinel errors in this package (or anything
//     else, which Gate classifies as "other").
//   - Evaluate: blocks until the platform returns a verdict, the user
//     dismisses the prompt, or ctx is cancelled.
//   - Invalidate: cancels any in-flight prompt; used on UI teardown.
type Evaluator interface {
	Capability() Capability
	CanEvaluate() error
	Evaluate(ctx context.Context, reason string) error
	Invalidate()
}

// Gate answers availability questions and runs presence checks, folding every
// platform failure into a tagged GateError. It never panics on evaluator
// misbehavior.
type Gate struct {
	eval Evaluator
	log  logging.Logger
}

func New(eval Evaluator, log logging.Logger) *Gate {
	if log == nil {
		log = logging.Noop()
	}
	return &Gate{eval: eval, log: log.With("component", "biometric")}
}

// Capability reports the hardware class the device exposes.
func (g *Gate) Capability() Capability {
	return g.eval.Capability()
}

// IsAvailable reports whether a biometric check could succeed right now:
// hardware present and the platform policy evaluator accepts. Enrollment
// revocation, lockout, and a missing passcode all make this false.
func (g *Gate) IsAvailable() bool {
	if g.eval.Capability() == CapabilityNone {
		return false
	}
	return g.eval.CanEvaluate() == nil
}

// Evaluate asks the platform to verify user presence, showing reason in the
// prompt. The result is always a nil error or a *GateError; raw platform
// errors and evaluator panics never escape.
func (g *Gate) Evaluate(ctx context.Context, reason string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error(ctx, "evaluator panicked", "panic", r)
			err = &GateError{Kind: KindOther, Message: fmt.Sprint(r)}
		}
	}()

	evalErr := g.eval.Evaluate(ctx, reason)
	if evalErr == nil {
		return nil
	}

	gerr := classify(evalErr)
	if gerr.Kind == KindUserCancelled {
		g.log.Debug(ctx, "evaluation dismissed by user")
	} else {
		g.log.Warn(ctx, "evaluation failed", "kind", gerr.Kind.String(), "err", evalErr)
	}
	return gerr
}

// Invalidate cancels any in-flight prompt. Safe to call at any time.
func (g *Gate) Invalidate() {
	g.eval.Invalidate()
}

func classify(err error) *GateError {
	switch {
	case errors.Is(err, ErrUserCancelled):
		return &GateError{Kind: KindUserCancelled}
	case errors.Is(err, ErrNotAvailable):
		return &GateError{Kind: KindNotAvailable}
	case errors.Is(err, ErrNotEnrolled):
		return &GateError{Kind: KindNotEnrolled}
	case errors.Is(err, ErrLockedOut):
		return &GateError{Kind: KindLockedOut}
	case errors.Is(err, ErrPasscodeNotSet):
		return &GateError{Kind: KindPasscodeNotSet}
	case errors.Is(err, ErrAppCancelled), errors.Is(err, context.Canceled):
		return &GateError{Kind: KindAppCancelled}
	case errors.Is(err, ErrSystemCancelled), errors.Is(err, context.DeadlineExceeded):
		return &GateError{Kind: KindSystemCancelled}
	case errors.Is(err, ErrFailed):
		return &GateError{Kind: KindFailed}
	default:
		return &GateError{Kind: KindOther, Message: err.Error()}
	}
}
