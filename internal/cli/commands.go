package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// promptText and promptSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var promptText = getSimpleText
var promptSecret = func(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	return getPassword(w, prompt)
}

// SignIn prompts for credentials and signs in through the controller. The
// user may opt in to biometric sign-in for the next launch.
func (a *App) SignIn(ctx context.Context) error {
	email, err := promptText(a.reader, "Enter email", a.writer)
	if err != nil {
		return err
	}
	password, err := promptSecret(a.reader, a.writer, "Enter password")
	if err != nil {
		return err
	}
	remember, err := promptText(a.reader, "Enable biometric sign-in? (y/n)", a.writer)
	if err != nil {
		return err
	}
	enableBiometric := strings.EqualFold(remember, "y") || strings.EqualFold(remember, "yes")

	if err := a.controller.RequestSignIn(ctx, email, password, enableBiometric); err != nil {
		a.printOutcome()
		return err
	}
	fmt.Fprintln(a.writer, "Signed in.")
	a.printOutcome()
	return nil
}

// SignUp prompts for account details and registers a new account.
func (a *App) SignUp(ctx context.Context) error {
	email, err := promptText(a.reader, "Enter email", a.writer)
	if err != nil {
		return err
	}
	password, err := promptSecret(a.reader, a.writer, "Enter password")
	if err != nil {
		return err
	}
	name, err := promptText(a.reader, "Enter full name", a.writer)
	if err != nil {
		return err
	}

	if err := a.controller.RequestSignUp(ctx, email, password, name); err != nil {
		a.printOutcome()
		return err
	}
	fmt.Fprintln(a.writer, "Account created.")
	return nil
}

// BiometricSignIn signs in with the stored credentials after a biometric
// confirmation.
func (a *App) BiometricSignIn(ctx context.Context) error {
	if err := a.controller.RequestBiometricSignIn(ctx); err != nil {
		a.printOutcome()
		return err
	}
	fmt.Fprintln(a.writer, "Signed in.")
	return nil
}

// SignOut ends the current session. Stored biometric credentials survive.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.controller.RequestSignOut(ctx); err != nil {
		a.printOutcome()
		return err
	}
	fmt.Fprintln(a.writer, "Signed out.")
	return nil
}

// PasswordReset requests a password reset email for the given address.
func (a *App) PasswordReset(ctx context.Context) error {
	email, err := promptText(a.reader, "Enter email", a.writer)
	if err != nil {
		return err
	}
	if err := a.controller.RequestPasswordReset(ctx, email); err != nil {
		a.printOutcome()
		return err
	}
	a.printOutcome()
	return nil
}

// EnableBiometric stores the given credentials behind a biometric check.
func (a *App) EnableBiometric(ctx context.Context) error {
	email, err := promptText(a.reader, "Enter email", a.writer)
	if err != nil {
		return err
	}
	password, err := promptSecret(a.reader, a.writer, "Enter password")
	if err != nil {
		return err
	}
	if err := a.controller.RequestEnableBiometric(ctx, email, password); err != nil {
		a.printOutcome()
		return err
	}
	fmt.Fprintln(a.writer, "Biometric sign-in enabled.")
	return nil
}

// DisableBiometric erases the stored credentials.
func (a *App) DisableBiometric(ctx context.Context) error {
	if err := a.controller.RequestDisableBiometric(ctx); err != nil {
		a.printOutcome()
		return err
	}
	fmt.Fprintln(a.writer, "Biometric sign-in disabled.")
	return nil
}

// TestBiometric runs a biometric prompt without touching stored credentials.
func (a *App) TestBiometric(ctx context.Context) error {
	if err := a.controller.RequestBiometricTest(ctx); err != nil {
		a.printOutcome()
		return err
	}
	fmt.Fprintln(a.writer, "Biometric check passed.")
	return nil
}

// ShowState prints the current auth snapshot.
func (a *App) ShowState(ctx context.Context) error {
	st := a.controller.State()
	fmt.Fprintf(a.writer, "state: %s\n", st.State)
	fmt.Fprintf(a.writer, "authenticated: %v\n", st.IsAuthenticated)
	fmt.Fprintf(a.writer, "biometric enabled: %v\n", st.IsBiometricEnabled)
	if st.Session != nil {
		fmt.Fprintf(a.writer, "email: %s\n", st.Session.Email)
		if st.Session.DisplayName != "" {
			fmt.Fprintf(a.writer, "name: %s\n", st.Session.DisplayName)
		}
	}
	if st.ErrorMessage != "" {
		fmt.Fprintf(a.writer, "error: %s\n", st.ErrorMessage)
	}
	return nil
}

// printOutcome surfaces the latest error or info message from the controller
// to the terminal.
func (a *App) printOutcome() {
	st := a.controller.State()
	if st.ErrorMessage != "" {
		fmt.Fprintln(a.writer, st.ErrorMessage)
		a.controller.DismissError()
		return
	}
	if st.InfoMessage != "" {
		fmt.Fprintln(a.writer, st.InfoMessage)
	}
}
