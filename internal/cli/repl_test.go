package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	signedIn bool

	calls []string
}

func (f *fakeExec) isSignedIn() bool { return f.signedIn }
func (f *fakeExec) SignIn(ctx context.Context) error {
	f.calls = append(f.calls, "signin")
	f.signedIn = true
	return nil
}
func (f *fakeExec) SignUp(ctx context.Context) error {
	f.calls = append(f.calls, "signup")
	return nil
}
func (f *fakeExec) BiometricSignIn(ctx context.Context) error {
	f.calls = append(f.calls, "biometric")
	f.signedIn = true
	return nil
}
func (f *fakeExec) SignOut(ctx context.Context) error {
	f.calls = append(f.calls, "signout")
	f.signedIn = false
	return nil
}
func (f *fakeExec) PasswordReset(ctx context.Context) error {
	f.calls = append(f.calls, "reset")
	return nil
}
func (f *fakeExec) EnableBiometric(ctx context.Context) error {
	f.calls = append(f.calls, "enable")
	return nil
}
func (f *fakeExec) DisableBiometric(ctx context.Context) error {
	f.calls = append(f.calls, "disable")
	return nil
}
func (f *fakeExec) TestBiometric(ctx context.Context) error {
	f.calls = append(f.calls, "test")
	return nil
}
func (f *fakeExec) ShowState(ctx context.Context) error {
	f.calls = append(f.calls, "state")
	return nil
}

func TestRunREPL_SignInFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"signin",
		"help",
		"enable",
		"test",
		"state",
		"foobar",
		"signout",
		"exit",
	}, "\n"))

	exec := &fakeExec{signedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"signin", "enable", "test", "state", "signout"}
	if len(exec.calls) != len(wantOrder) {
		t.Fatalf("unexpected calls: %+v", exec.calls)
	}
	for i, c := range exec.calls {
		if c != wantOrder[i] {
			t.Fatalf("commands order mismatch: got %v, want %v", exec.calls, wantOrder)
		}
	}
}

func TestRunREPL_EOFStopsLoop(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("\n\n")
	exec := &fakeExec{signedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
