// Package controller reconciles the three asynchronous inputs of the auth
// experience — the backend session feed, the biometric gate, and the
// credential vault — into one published UIState, while guaranteeing that at
// most one auth or biometric operation runs at a time.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/autherr"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/biometric"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/identity"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/vault"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/logging"
)

const usersCollection = "users"

// DefaultMaxAutoPromptFailures caps consecutive failed automatic biometric
// prompts before the controller demands an explicit tap.
const DefaultMaxAutoPromptFailures = 3

// Vault is the credential-vault collaborator.
type Vault interface {
	IsEnabled(ctx context.Context) bool
	Enable(ctx context.Context, identifier, secret string) error
	Disable(ctx context.Context)
	Retrieve(ctx context.Context) (identifier, secret string, err error)
	Test(ctx context.Context) error
}

// Gate is the slice of the biometric gate the controller touches directly.
type Gate interface {
	IsAvailable() bool
	Invalidate()
}

// Controller owns the auth state machine. Construct with New, call Start once
// per app-foreground cycle, and Close on teardown. All published-state
// mutations are serialized through one internal apply path; observers always
// receive consistent snapshot copies.
type Controller struct {
	backend         identity.Client
	vault           Vault
	gate            Gate
	log             logging.Logger
	maxAutoFailures int

	mu           sync.Mutex
	state        UIState
	observers    map[int]func(UIState)
	nextObserver int
	autoFailures int

	lock operationLock

	runCtx      context.Context
	runCancel   context.CancelFunc
	unsubscribe func()
	started     bool
}

func New(backend identity.Client, v Vault, gate Gate, log logging.Logger) *Controller {
	if log == nil {
		log = logging.Noop()
	}
	return &Controller{
		backend:         backend,
		vault:           v,
		gate:            gate,
		log:             log.With("component", "auth"),
		maxAutoFailures: DefaultMaxAutoPromptFailures,
		observers:       make(map[int]func(UIState)),
	}
}

// SetMaxAutoPromptFailures overrides the automatic-prompt failure cap.
// Call before Start.
func (c *Controller) SetMaxAutoPromptFailures(n int) {
	c.maxAutoFailures = n
}

// Start subscribes to the backend session feed, seeds the published state,
// and fires the once-per-foreground automatic biometric prompt when the vault
// is enabled and nobody is signed in. Safe to call again after Close.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.runCtx, c.runCancel = context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Unlock()

	unsubscribe := c.backend.OnSessionChange(c.handleSessionChange)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	session := c.backend.CurrentSession()
	biometricEnabled := c.vault.IsEnabled(c.runCtx)
	c.apply(func(s *UIState) {
		s.Session = session
		if session != nil {
			s.State = StateSignedIn
		} else {
			s.State = StateSignedOut
		}
		s.IsBiometricEnabled = biometricEnabled
	})

	if session == nil && biometricEnabled {
		go c.autoBiometricPrompt(c.runCtx)
	}
}

// Close tears the controller down: drops the session subscription and
// invalidates any in-flight biometric prompt so a suspended evaluation
// cannot outlive the UI that asked for it.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	cancel := c.runCancel
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.gate.Invalidate()
	if cancel != nil {
		cancel()
	}
}

// State returns the current published snapshot.
func (c *Controller) State() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// OnChange registers an observer for published-state updates and returns an
// unsubscribe func. The observer is called synchronously with each snapshot.
func (c *Controller) OnChange(cb func(UIState)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = cb
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// DismissError clears the published error message.
func (c *Controller) DismissError() {
	c.apply(func(s *UIState) {
		s.ErrorMessage = ""
		s.InfoMessage = ""
	})
}

// CurrentOperation reports the lock-guarded operation in flight, "" when idle.
func (c *Controller) CurrentOperation() string {
	return c.lock.current()
}

// RequestSignIn authenticates with the backend. With enableBiometric set and
// usable hardware, the credential is enrolled in the vault after the backend
// accepts it; enrolment failures are surfaced but never undo the sign-in.
func (c *Controller) RequestSignIn(ctx context.Context, identifier, secret string, enableBiometric bool) error {
	if identifier == "" || secret == "" {
		err := autherr.New(autherr.CodeInvalidInput)
		c.publishError(err)
		return err
	}
	if !c.lock.tryAcquire("sign-in") {
		return autherr.New(autherr.CodeBusy)
	}
	defer c.lock.release()

	c.apply(func(s *UIState) {
		s.State = StateAuthenticating
		s.IsLoading = true
		s.ErrorMessage = ""
		s.InfoMessage = ""
	})

	session, err := c.backend.SignIn(ctx, identifier, secret)
	if err != nil {
		c.log.Warn(ctx, "sign in failed", "err", err)
		c.apply(func(s *UIState) {
			s.State = StateSignedOut
			s.IsLoading = false
		})
		c.publishError(err)
		return toTaxonomy(err)
	}

	if enableBiometric && c.gate.IsAvailable() {
		if enrollErr := c.vault.Enable(ctx, identifier, secret); enrollErr != nil {
			if biometric.IsUserCancelled(enrollErr) {
				c.log.Debug(ctx, "biometric enrolment declined")
			} else {
				c.log.Warn(ctx, "biometric enrolment failed", "err", enrollErr)
				c.publishError(enrollErr)
			}
		}
	}

	// Store reads stay outside apply; the state mutex must not wait on IO.
	biometricEnabled := c.vault.IsEnabled(ctx)
	c.apply(func(s *UIState) {
		s.State = StateSignedIn
		if session != nil {
			snapshot := *session
			s.Session = &snapshot
		}
		s.IsLoading = false
		s.IsBiometricEnabled = biometricEnabled
	})
	return nil
}

// RequestSignUp creates the account, writes the profile document, and sets
// the display name. A step failing after account creation is surfaced as a
// retryable error; the account itself is not rolled back, so the user ends up
// signed in with a partial profile rather than silently losing the account.
func (c *Controller) RequestSignUp(ctx context.Context, identifier, secret, profileName string) error {
	if identifier == "" || secret == "" || profileName == "" {
		err := autherr.New(autherr.CodeInvalidInput)
		c.publishError(err)
		return err
	}
	if !c.lock.tryAcquire("sign-up") {
		return autherr.New(autherr.CodeBusy)
	}
	defer c.lock.release()

	c.apply(func(s *UIState) {
		s.State = StateSigningUp
		s.IsLoading = true
		s.ErrorMessage = ""
		s.InfoMessage = ""
	})

	session, err := c.backend.SignUp(ctx, identifier, secret)
	if err != nil {
		c.log.Warn(ctx, "sign up failed", "err", err)
		c.apply(func(s *UIState) {
			s.State = StateSignedOut
			s.IsLoading = false
		})
		c.publishError(err)
		return toTaxonomy(err)
	}

	var stepErr error
	if docErr := c.backend.SetDocument(ctx, usersCollection, session.UID, map[string]any{
		"fullName":  profileName,
		"email":     identifier,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}); docErr != nil {
		stepErr = fmt.Errorf("profile document: %w", docErr)
	} else if nameErr := c.backend.UpdateDisplayName(ctx, profileName); nameErr != nil {
		stepErr = fmt.Errorf("display name: %w", nameErr)
	}

	c.apply(func(s *UIState) {
		s.IsLoading = false
	})

	if stepErr != nil {
		// account exists and the session feed has already moved the
		// state to SignedIn; the partial profile must not look like a
		// clean success
		c.log.Warn(ctx, "post-signup step failed", "err", stepErr)
		ae := autherr.Newf(autherr.CodeUnknown, "Account created, but saving your profile failed. Please retry from settings.")
		c.publishError(ae)
		return ae
	}

	c.apply(func(s *UIState) {
		if s.Session != nil {
			s.Session.DisplayName = profileName
		}
	})
	return nil
}

// RequestBiometricSignIn replays the vaulted credential after a fresh
// presence check. Rejected when busy or when the vault is not enabled.
func (c *Controller) RequestBiometricSignIn(ctx context.Context) error {
	err := c.biometricSignIn(ctx)
	if err == nil {
		c.resetAutoFailures()
	}
	return err
}

func (c *Controller) biometricSignIn(ctx context.Context) error {
	if !c.vault.IsEnabled(ctx) {
		return autherr.Newf(autherr.CodeGateUnavailable, "Biometric sign-in is not set up on this device.")
	}
	if !c.lock.tryAcquire("biometric-sign-in") {
		return autherr.New(autherr.CodeBusy)
	}
	defer c.lock.release()

	c.apply(func(s *UIState) {
		s.State = StateAuthenticating
		s.IsLoading = true
		s.ErrorMessage = ""
		s.InfoMessage = ""
	})

	identifier, secret, err := c.vault.Retrieve(ctx)
	if err == nil && (identifier == "" || secret == "") {
		// the backend must never see an empty replay
		c.vault.Disable(ctx)
		err = vault.ErrCorrupted
	}
	if err != nil {
		c.apply(func(s *UIState) {
			s.State = StateSignedOut
			s.IsLoading = false
		})
		c.handleRetrieveFailure(ctx, err)
		return toTaxonomy(err)
	}

	session, err := c.backend.SignIn(ctx, identifier, secret)
	if err != nil {
		// The pair was valid to retrieve; only the replay failed
		// (e.g. password changed elsewhere). The vault stays enabled
		// and the user is guided back to the password form.
		c.log.Warn(ctx, "credential replay rejected", "err", err)
		enabled := c.vault.IsEnabled(ctx)
		c.apply(func(s *UIState) {
			s.State = StateSignedOut
			s.IsLoading = false
			s.IsBiometricEnabled = enabled
		})
		if autherr.IsCode(err, autherr.CodeInvalidCredentials) {
			c.publishError(autherr.Newf(autherr.CodeInvalidCredentials,
				"Your saved credentials no longer match. Please sign in with your password."))
		} else {
			c.publishError(err)
		}
		return toTaxonomy(err)
	}

	// The backend has accepted; move to SignedIn here rather than waiting
	// for the session feed, which may deliver from a background goroutine
	// after this apply. Otherwise the flag below would be cleared while the
	// state still reads Authenticating.
	c.apply(func(s *UIState) {
		s.State = StateSignedIn
		if session != nil {
			snapshot := *session
			s.Session = &snapshot
		}
		s.IsLoading = false
		s.IsBiometricAuthenticated = true
	})
	return nil
}

// handleRetrieveFailure applies the vault-failure policy: corruption has
// already erased the record, hardware regressions disable it, a user
// cancel is silent, everything else just surfaces.
func (c *Controller) handleRetrieveFailure(ctx context.Context, err error) {
	switch {
	case errors.Is(err, vault.ErrCorrupted):
		c.log.Warn(ctx, "vault corrupted, biometric sign-in disabled")
	case biometric.KindOf(err) == biometric.KindNotAvailable,
		biometric.KindOf(err) == biometric.KindNotEnrolled,
		biometric.KindOf(err) == biometric.KindPasscodeNotSet:
		c.log.Warn(ctx, "biometric capability regressed, disabling", "err", err)
		c.vault.Disable(ctx)
	}
	enabled := c.vault.IsEnabled(ctx)
	c.apply(func(s *UIState) {
		s.IsBiometricEnabled = enabled
	})
	c.publishError(err)
}

// RequestSignOut drops the backend session. The vault's enabled flag
// survives: the opt-in belongs to the device, and a stale secret is caught
// lazily by the next replay instead of eagerly erased here.
func (c *Controller) RequestSignOut(ctx context.Context) error {
	if !c.lock.tryAcquire("sign-out") {
		return autherr.New(autherr.CodeBusy)
	}
	defer c.lock.release()

	c.apply(func(s *UIState) {
		s.IsLoading = true
		s.ErrorMessage = ""
		s.InfoMessage = ""
	})

	err := c.backend.SignOut(ctx)
	c.apply(func(s *UIState) {
		s.IsLoading = false
	})
	if err != nil {
		c.log.Error(ctx, "sign out failed", "err", err)
		c.publishError(err)
		return toTaxonomy(err)
	}
	return nil
}

// RequestPasswordReset is fire-and-forget and deliberately skips the
// operation lock: it has no terminal state to race with.
func (c *Controller) RequestPasswordReset(ctx context.Context, identifier string) error {
	if identifier == "" {
		err := autherr.New(autherr.CodeInvalidInput)
		c.publishError(err)
		return err
	}

	if err := c.backend.SendPasswordReset(ctx, identifier); err != nil {
		c.log.Warn(ctx, "password reset failed", "err", err)
		c.publishError(err)
		return toTaxonomy(err)
	}

	c.apply(func(s *UIState) {
		s.ErrorMessage = ""
		s.InfoMessage = fmt.Sprintf("Password reset email sent to %s.", identifier)
	})
	return nil
}

// RequestEnableBiometric enrols the given verified credential pair.
func (c *Controller) RequestEnableBiometric(ctx context.Context, identifier, secret string) error {
	if !c.lock.tryAcquire("enable-biometric") {
		return autherr.New(autherr.CodeBusy)
	}
	defer c.lock.release()

	err := c.vault.Enable(ctx, identifier, secret)
	enabled := c.vault.IsEnabled(ctx)
	c.apply(func(s *UIState) {
		s.IsBiometricEnabled = enabled
	})
	if err != nil {
		c.publishError(err)
		return toTaxonomy(err)
	}
	return nil
}

// RequestDisableBiometric erases the vault record.
func (c *Controller) RequestDisableBiometric(ctx context.Context) error {
	if !c.lock.tryAcquire("disable-biometric") {
		return autherr.New(autherr.CodeBusy)
	}
	defer c.lock.release()

	c.vault.Disable(ctx)
	c.apply(func(s *UIState) {
		s.IsBiometricEnabled = false
		s.IsBiometricAuthenticated = false
	})
	return nil
}

// RequestBiometricTest runs a bare presence check so settings UI can verify
// the hardware without touching stored credentials.
func (c *Controller) RequestBiometricTest(ctx context.Context) error {
	if !c.lock.tryAcquire("biometric-test") {
		return autherr.New(autherr.CodeBusy)
	}
	defer c.lock.release()

	if err := c.vault.Test(ctx); err != nil {
		c.publishError(err)
		return toTaxonomy(err)
	}
	return nil
}

// autoBiometricPrompt fires the launch-time replay. Failures accumulate; at
// the cap the controller stops volunteering and waits for an explicit tap.
func (c *Controller) autoBiometricPrompt(ctx context.Context) {
	c.mu.Lock()
	failures := c.autoFailures
	c.mu.Unlock()
	if failures >= c.maxAutoFailures {
		c.log.Info(ctx, "auto biometric prompt suppressed", "failures", failures)
		return
	}

	if err := c.biometricSignIn(ctx); err != nil {
		if autherr.IsCode(err, autherr.CodeBusy) {
			return
		}
		c.mu.Lock()
		c.autoFailures++
		c.mu.Unlock()
		return
	}
	c.resetAutoFailures()
}

func (c *Controller) resetAutoFailures() {
	c.mu.Lock()
	c.autoFailures = 0
	c.mu.Unlock()
}

// handleSessionChange is invoked by the backend feed. A non-nil session moves
// the machine to SignedIn and kicks off a best-effort profile reload; nil
// clears everything session-scoped.
func (c *Controller) handleSessionChange(session *identity.Session) {
	if session == nil {
		c.apply(func(s *UIState) {
			s.State = StateSignedOut
			s.Session = nil
			s.IsBiometricAuthenticated = false
		})
		return
	}

	snapshot := *session
	c.apply(func(s *UIState) {
		s.State = StateSignedIn
		s.Session = &snapshot
	})

	c.mu.Lock()
	ctx := c.runCtx
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	go c.reloadProfile(ctx, snapshot)
}

// reloadProfile merges the user's profile document over the bare session
// fields. On any failure the minimal profile stands; the transition to
// SignedIn never waits for, or fails on, this.
func (c *Controller) reloadProfile(ctx context.Context, session identity.Session) {
	doc, err := c.backend.GetDocument(ctx, usersCollection, session.UID)
	if err != nil {
		c.log.Debug(ctx, "profile reload failed, keeping minimal profile", "err", err)
		return
	}

	merged := session
	if name, _ := doc["fullName"].(string); name != "" {
		merged.DisplayName = name
	}
	if photo, _ := doc["photoUrl"].(string); photo != "" {
		merged.PhotoURL = photo
	}
	if phone, _ := doc["phoneNumber"].(string); phone != "" {
		merged.PhoneNumber = phone
	}
	if created, _ := doc["createdAt"].(string); created != "" {
		if ts, parseErr := time.Parse(time.RFC3339, created); parseErr == nil {
			merged.CreatedAt = ts
		}
	}

	c.apply(func(s *UIState) {
		// the session may have changed or ended while we were loading
		if s.Session == nil || s.Session.UID != merged.UID {
			return
		}
		s.Session = &merged
	})
}

// apply is the single mutation path for published state. Derived fields are
// recomputed here so observers can never see them out of sync.
func (c *Controller) apply(mutate func(*UIState)) {
	c.mu.Lock()
	mutate(&c.state)
	c.state.IsAuthenticated = c.state.State == StateSignedIn
	if !c.state.IsAuthenticated {
		c.state.IsBiometricAuthenticated = false
	}
	snapshot := c.state.clone()
	observers := make([]func(UIState), 0, len(c.observers))
	for _, cb := range c.observers {
		observers = append(observers, cb)
	}
	c.mu.Unlock()

	for _, cb := range observers {
		cb(snapshot)
	}
}

// publishError folds err into the taxonomy and publishes its message. A
// cancelled gate clears the error field instead: backing out of the prompt
// is not a failure the user needs to read about.
func (c *Controller) publishError(err error) {
	ae := toTaxonomy(err)
	c.apply(func(s *UIState) {
		if ae.Code == autherr.CodeGateCancelled {
			s.ErrorMessage = ""
			s.InfoMessage = ""
			return
		}
		s.ErrorMessage = ae.Message
		s.InfoMessage = ""
	})
}

// toTaxonomy maps any error from the gate, vault, or backend into the
// surfaced taxonomy. Backend errors arrive pre-mapped; gate and vault errors
// are folded here.
func toTaxonomy(err error) *autherr.Error {
	var ae *autherr.Error
	if errors.As(err, &ae) {
		return ae
	}

	var gerr *biometric.GateError
	if errors.As(err, &gerr) {
		switch gerr.Kind {
		case biometric.KindUserCancelled, biometric.KindAppCancelled, biometric.KindSystemCancelled:
			return autherr.New(autherr.CodeGateCancelled)
		case biometric.KindNotAvailable, biometric.KindPasscodeNotSet:
			return autherr.New(autherr.CodeGateUnavailable)
		case biometric.KindNotEnrolled:
			return autherr.New(autherr.CodeGateNotEnrolled)
		case biometric.KindLockedOut:
			return autherr.New(autherr.CodeGateLockedOut)
		default:
			return autherr.Newf(autherr.CodeUnknown, "Biometric authentication failed. Please try again.")
		}
	}

	switch {
	case errors.Is(err, vault.ErrInvalidInput):
		return autherr.New(autherr.CodeInvalidInput)
	case errors.Is(err, vault.ErrCorrupted):
		return autherr.New(autherr.CodeVaultCorrupted)
	case errors.Is(err, vault.ErrNotEnabled):
		return autherr.Newf(autherr.CodeGateUnavailable, "Biometric sign-in is not set up on this device.")
	case errors.Is(err, vault.ErrPersistenceFailed):
		return autherr.Newf(autherr.CodeUnknown, "Could not save biometric settings. Please try again.")
	}
	return autherr.Wrap(autherr.CodeUnknown, err)
}
