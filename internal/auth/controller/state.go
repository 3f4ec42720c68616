package controller

import "github.com/erangaIrugalbandara/PawFinderMess/internal/auth/identity"

// AuthState is the controller's coarse position in the sign-in lifecycle.
type AuthState int

const (
	StateSignedOut AuthState = iota
	StateAuthenticating
	StateSigningUp
	StateSignedIn
)

func (s AuthState) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateSigningUp:
		return "signing_up"
	case StateSignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// UIState is the published snapshot the presentation layer renders from.
// Observers receive copies; nothing in here is shared mutable state.
type UIState struct {
	State                    AuthState
	IsAuthenticated          bool
	IsLoading                bool
	IsBiometricAuthenticated bool
	IsBiometricEnabled       bool
	ErrorMessage             string
	InfoMessage              string
	Session                  *identity.Session
}

// clone deep-copies the snapshot so observers can hold it freely.
func (s UIState) clone() UIState {
	out := s
	if s.Session != nil {
		session := *s.Session
		out.Session = &session
	}
	return out
}
