package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	SignIn(ctx context.Context) error
	SignUp(ctx context.Context) error
	BiometricSignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	PasswordReset(ctx context.Context) error
	EnableBiometric(ctx context.Context) error
	DisableBiometric(ctx context.Context) error
	TestBiometric(ctx context.Context) error
	ShowState(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the PawFinder auth demo.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Signed out:
//	  - help           — show available commands
//	  - signup         — create an account
//	  - signin         — authenticate with email and password
//	  - biometric      — authenticate with stored credentials
//	  - reset          — request a password reset email
//	  - state          — print the current auth snapshot
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help           — show available commands
//	  - enable         — enable biometric sign-in
//	  - disable        — disable biometric sign-in
//	  - test           — run a biometric check
//	  - state          — print the current auth snapshot
//	  - signout        — end the session
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers surface
// their own messages. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("paw> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn("Available commands: enable, disable, test, state, signout, exit")
			} else {
				printlnFn("Available commands: signup, signin, biometric, reset, state, exit")
			}

		case "signup":
			_ = a.SignUp(ctx)

		case "signin":
			_ = a.SignIn(ctx)

		case "biometric":
			_ = a.BiometricSignIn(ctx)

		case "reset":
			_ = a.PasswordReset(ctx)

		case "enable":
			_ = a.EnableBiometric(ctx)

		case "disable":
			_ = a.DisableBiometric(ctx)

		case "test":
			_ = a.TestBiometric(ctx)

		case "state":
			_ = a.ShowState(ctx)

		case "signout":
			_ = a.SignOut(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
