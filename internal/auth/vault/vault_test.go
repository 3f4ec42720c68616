package vault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/biometric"
)

// fakeGate implements Gate for unit tests.
type fakeGate struct {
	available  bool
	evalErr    error
	evalCalls  int
	lastReason string
}

func (f *fakeGate) IsAvailable() bool { return f.available }

func (f *fakeGate) Evaluate(ctx context.Context, reason string) error {
	f.evalCalls++
	f.lastReason = reason
	return f.evalErr
}

// failingStore wraps a Store and fails selected operations.
type failingStore struct {
	Store
	failSetKeys map[string]bool
	failGet     bool
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.failSetKeys[key] {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingStore) Get(ctx context.Context, key string) (string, error) {
	if f.failGet {
		return "", errors.New("io error")
	}
	return f.Store.Get(ctx, key)
}

func newTestVault(t *testing.T, gate *fakeGate) (*Vault, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return New(store, gate, "PawFinder", nil), store
}

func TestEnable_RoundTrip(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, _ := newTestVault(t, gate)

	require.NoError(t, v.Enable(ctx, "user@example.com", "s3cret"))
	require.True(t, v.IsEnabled(ctx))

	id, secret, err := v.Retrieve(ctx)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", id)
	require.Equal(t, "s3cret", secret)
}

func TestEnable_EmptyInput_DoesNotTouchHardware(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, _ := newTestVault(t, gate)

	require.ErrorIs(t, v.Enable(ctx, "", "s3cret"), ErrInvalidInput)
	require.ErrorIs(t, v.Enable(ctx, "user@example.com", ""), ErrInvalidInput)
	require.Zero(t, gate.evalCalls)
	require.False(t, v.IsEnabled(ctx))
}

func TestEnable_UserCancelled_StaysDisabled(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true, evalErr: &biometric.GateError{Kind: biometric.KindUserCancelled}}
	v, _ := newTestVault(t, gate)

	err := v.Enable(ctx, "user@example.com", "s3cret")
	require.True(t, biometric.IsUserCancelled(err))
	require.False(t, v.IsEnabled(ctx))
}

func TestEnable_PartialWrite_RollsBackToDisabled(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	mem := NewMemoryStore()
	store := &failingStore{Store: mem, failSetKeys: map[string]bool{keySecret: true}}
	v := New(store, gate, "PawFinder", nil)

	err := v.Enable(ctx, "user@example.com", "s3cret")
	require.ErrorIs(t, err, ErrPersistenceFailed)

	// roll back must leave no trace
	for _, key := range []string{keyEnabled, keyIdentifier, keySecret} {
		val, getErr := mem.Get(ctx, key)
		require.NoError(t, getErr)
		require.Empty(t, val, "key %s must be erased", key)
	}
	require.False(t, v.IsEnabled(ctx))
}

func TestDisable_Idempotent(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, _ := newTestVault(t, gate)

	require.NoError(t, v.Enable(ctx, "user@example.com", "s3cret"))
	v.Disable(ctx)
	v.Disable(ctx)
	require.False(t, v.IsEnabled(ctx))
}

func TestRetrieve_AfterDisable_ShortCircuits(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, _ := newTestVault(t, gate)

	require.NoError(t, v.Enable(ctx, "user@example.com", "s3cret"))
	v.Disable(ctx)
	gate.evalCalls = 0

	_, _, err := v.Retrieve(ctx)
	require.ErrorIs(t, err, ErrNotEnabled)
	require.Zero(t, gate.evalCalls, "gate must not be prompted for a disabled vault")
}

func TestRetrieve_CorruptedRecord_SelfHeals(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, store := newTestVault(t, gate)

	// enabled flag without a stored pair
	require.NoError(t, store.Set(ctx, keyEnabled, enabledValue))
	require.NoError(t, store.Set(ctx, keyIdentifier, "user@example.com"))

	_, _, err := v.Retrieve(ctx)
	require.ErrorIs(t, err, ErrCorrupted)
	require.Zero(t, gate.evalCalls)

	flag, getErr := store.Get(ctx, keyEnabled)
	require.NoError(t, getErr)
	require.Empty(t, flag, "self-heal must erase the record")
}

func TestIsEnabled_CorruptedRecord_SelfHeals(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, store := newTestVault(t, gate)

	require.NoError(t, store.Set(ctx, keyEnabled, enabledValue))
	require.False(t, v.IsEnabled(ctx))

	flag, err := store.Get(ctx, keyEnabled)
	require.NoError(t, err)
	require.Empty(t, flag)
}

func TestIsEnabled_GateUnavailable_OverridesStoredFlag(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, _ := newTestVault(t, gate)

	require.NoError(t, v.Enable(ctx, "user@example.com", "s3cret"))
	require.True(t, v.IsEnabled(ctx))

	gate.available = false
	require.False(t, v.IsEnabled(ctx))
}

func TestIsEnabled_StoreError_ReportsDisabled(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	store := &failingStore{Store: NewMemoryStore(), failGet: true}
	v := New(store, gate, "PawFinder", nil)

	require.False(t, v.IsEnabled(ctx))
}

func TestRetrieve_GateFailure_PassesThrough(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, _ := newTestVault(t, gate)

	require.NoError(t, v.Enable(ctx, "user@example.com", "s3cret"))
	gate.evalErr = &biometric.GateError{Kind: biometric.KindLockedOut}

	_, _, err := v.Retrieve(ctx)
	require.Equal(t, biometric.KindLockedOut, biometric.KindOf(err))
	// the record survives a gate failure
	gate.evalErr = nil
	id, secret, err := v.Retrieve(ctx)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", id)
	require.Equal(t, "s3cret", secret)
}

func TestTest_DoesNotTouchStore(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	store := &failingStore{Store: NewMemoryStore(), failGet: true}
	v := New(store, gate, "PawFinder", nil)

	require.NoError(t, v.Test(ctx))
	require.Equal(t, 1, gate.evalCalls)
}

func TestPromptReasons_NameTheApp(t *testing.T) {
	ctx := context.Background()
	gate := &fakeGate{available: true}
	v, _ := newTestVault(t, gate)

	require.NoError(t, v.Enable(ctx, "user@example.com", "s3cret"))
	require.Contains(t, gate.lastReason, "PawFinder")

	_, _, err := v.Retrieve(ctx)
	require.NoError(t, err)
	require.Contains(t, gate.lastReason, "Sign in to PawFinder")
}
