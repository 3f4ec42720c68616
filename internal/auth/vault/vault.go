// Package vault persists a user's sign-in credential behind the device's
// biometric gate. The record is three keys in a local store: an enabled flag,
// the identifier, and the secret. The invariant is that an enabled vault
// always holds a non-empty pair; any violation observed at read time erases
// the record and reports disabled instead of failing.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/logging"
)

const (
	keyEnabled    = "biometric_enabled"
	keyIdentifier = "biometric_identifier"
	keySecret     = "biometric_secret"

	enabledValue = "1"
)

var (
	// ErrInvalidInput means an empty identifier or secret was offered;
	// the biometric hardware is never touched in that case.
	ErrInvalidInput = errors.New("vault: identifier and secret must be non-empty")

	// ErrPersistenceFailed means the store rejected a write; the vault has
	// been rolled back to fully disabled.
	ErrPersistenceFailed = errors.New("vault: persistence failed")

	// ErrCorrupted means the enabled flag was set without a stored pair;
	// the vault has erased itself before returning this.
	ErrCorrupted = errors.New("vault: record corrupted, self-healed to disabled")

	// ErrNotEnabled means Retrieve was called without a prior Enable (or
	// after a Disable); nothing was prompted or read.
	ErrNotEnabled = errors.New("vault: biometric sign-in not enabled")
)

// Gate is the subset of the biometric gate the vault needs. Gate evaluation
// failures pass through Enable/Retrieve/Test unchanged (as *biometric.GateError)
// so callers can distinguish user cancellation from hard failures.
type Gate interface {
	IsAvailable() bool
	Evaluate(ctx context.Context, reason string) error
}

// Vault stores one (identifier, secret) pair behind the biometric gate.
type Vault struct {
	store   Store
	gate    Gate
	appName string
	log     logging.Logger
}

func New(store Store, gate Gate, appName string, log logging.Logger) *Vault {
	if log == nil {
		log = logging.Noop()
	}
	return &Vault{
		store:   store,
		gate:    gate,
		appName: appName,
		log:     log.With("component", "vault"),
	}
}

// IsEnabled reports whether a biometric sign-in could be offered right now.
// It is false whenever the gate is unavailable, regardless of the stored
// flag: capability may have been revoked since enrolment. A set flag without
// a stored pair is corruption and self-heals to disabled here.
func (v *Vault) IsEnabled(ctx context.Context) bool {
	if !v.gate.IsAvailable() {
		return false
	}

	flag, err := v.store.Get(ctx, keyEnabled)
	if err != nil || flag != enabledValue {
		return false
	}

	id, idErr := v.store.Get(ctx, keyIdentifier)
	secret, secErr := v.store.Get(ctx, keySecret)
	if idErr != nil || secErr != nil {
		return false
	}
	if id == "" || secret == "" {
		v.log.Warn(ctx, "enabled flag without stored pair, erasing record")
		v.Disable(ctx)
		return false
	}
	return true
}

// Enable verifies user presence and then persists the pair. The write is
// all-or-nothing: any store failure rolls the record back to fully disabled.
// A user-cancelled prompt returns the gate error unchanged and leaves the
// vault untouched.
func (v *Vault) Enable(ctx context.Context, identifier, secret string) error {
	if identifier == "" || secret == "" {
		return ErrInvalidInput
	}

	reason := fmt.Sprintf("Enable biometric sign-in for %s", v.appName)
	if err := v.gate.Evaluate(ctx, reason); err != nil {
		return err
	}

	if err := v.writeRecord(ctx, identifier, secret); err != nil {
		v.log.Error(ctx, "record write failed, rolling back", "err", err)
		v.Disable(ctx)
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	v.log.Info(ctx, "biometric sign-in enabled")
	return nil
}

func (v *Vault) writeRecord(ctx context.Context, identifier, secret string) error {
	if err := v.store.Set(ctx, keyIdentifier, identifier); err != nil {
		return err
	}
	if err := v.store.Set(ctx, keySecret, secret); err != nil {
		return err
	}
	// The flag goes last: a crash between writes leaves a disabled vault
	// with orphaned fields, not an enabled vault with missing ones.
	return v.store.Set(ctx, keyEnabled, enabledValue)
}

// Disable erases the whole record. Idempotent; store failures are logged and
// swallowed, deletion is best effort.
func (v *Vault) Disable(ctx context.Context) {
	for _, key := range []string{keyEnabled, keyIdentifier, keySecret} {
		if err := v.store.Delete(ctx, key); err != nil {
			v.log.Warn(ctx, "best-effort delete failed", "key", key, "err", err)
		}
	}
}

// Retrieve verifies user presence and returns the stored pair. It requires
// an enabled vault; a set flag without a pair counts as corruption, which
// erases the record before ErrCorrupted is returned.
func (v *Vault) Retrieve(ctx context.Context) (identifier, secret string, err error) {
	flag, err := v.store.Get(ctx, keyEnabled)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	if flag != enabledValue {
		return "", "", ErrNotEnabled
	}

	id, err := v.store.Get(ctx, keyIdentifier)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	sec, err := v.store.Get(ctx, keySecret)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	if id == "" || sec == "" {
		v.log.Warn(ctx, "corrupted record detected during retrieve, erasing")
		v.Disable(ctx)
		return "", "", ErrCorrupted
	}

	reason := fmt.Sprintf("Sign in to %s", v.appName)
	if err := v.gate.Evaluate(ctx, reason); err != nil {
		return "", "", err
	}
	return id, sec, nil
}

// Test runs a bare presence check without touching stored credentials, so
// settings UI can let the user verify the hardware works.
func (v *Vault) Test(ctx context.Context) error {
	return v.gate.Evaluate(ctx, "Verify biometric authentication")
}
