package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/biometric"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/controller"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/identity"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/vault"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/config"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/logging"
)

// stubPrompts replaces the interactive input seams for the duration of the
// test. Text prompts are answered in order from answers; the secret prompt
// always returns secret.
func stubPrompts(t *testing.T, answers []string, secret string) {
	t.Helper()

	origText := promptText
	origSecret := promptSecret
	t.Cleanup(func() {
		promptText = origText
		promptSecret = origSecret
	})

	i := 0
	promptText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		a := answers[i]
		i++
		return a, nil
	}
	promptSecret = func(_ *bufio.Reader, _ io.Writer, _ string) (string, error) {
		return secret, nil
	}
}

func newTestApp(t *testing.T, backend identity.Client) (*App, *bytes.Buffer) {
	t.Helper()

	log := logging.Noop()
	var out bytes.Buffer

	gate := biometric.New(newTerminalEvaluator(bufio.NewReader(strings.NewReader("")), &out), log)
	v := vault.New(vault.NewMemoryStore(), gate, "PawFinder", log)

	ctrl := controller.New(backend, v, gate, log)
	ctrl.Start(context.Background())
	t.Cleanup(ctrl.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	return &App{
		config:     cfg,
		logger:     log,
		controller: ctrl,
		reader:     bufio.NewReader(strings.NewReader("")),
		writer:     &out,
	}, &out
}

func TestSignInCommand_Success(t *testing.T) {
	backend := identity.NewMemoryClient()
	_, err := backend.SignUp(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, backend.SignOut(context.Background()))

	app, out := newTestApp(t, backend)
	stubPrompts(t, []string{"ann@example.com", "n"}, "secret1")

	require.NoError(t, app.SignIn(context.Background()))
	require.Contains(t, out.String(), "Signed in.")
	require.True(t, app.isSignedIn())
}

func TestSignInCommand_WrongSecretPrintsMessage(t *testing.T) {
	backend := identity.NewMemoryClient()
	_, err := backend.SignUp(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, backend.SignOut(context.Background()))

	app, out := newTestApp(t, backend)
	stubPrompts(t, []string{"ann@example.com", "n"}, "wrong")

	require.Error(t, app.SignIn(context.Background()))
	require.False(t, app.isSignedIn())
	require.NotEmpty(t, out.String())
}

func TestSignUpThenSignOutCommands(t *testing.T) {
	backend := identity.NewMemoryClient()
	app, out := newTestApp(t, backend)
	stubPrompts(t, []string{"bob@example.com", "Bob Tails"}, "secret1")

	require.NoError(t, app.SignUp(context.Background()))
	require.Contains(t, out.String(), "Account created.")
	require.True(t, app.isSignedIn())

	require.NoError(t, app.SignOut(context.Background()))
	require.False(t, app.isSignedIn())
}

func TestShowStateCommand(t *testing.T) {
	backend := identity.NewMemoryClient()
	app, out := newTestApp(t, backend)

	require.NoError(t, app.ShowState(context.Background()))
	require.Contains(t, out.String(), "state: signed_out")
	require.Contains(t, out.String(), "authenticated: false")
}

func TestStatusShowsEmail(t *testing.T) {
	backend := identity.NewMemoryClient()
	_, err := backend.SignUp(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, backend.SignOut(context.Background()))

	app, _ := newTestApp(t, backend)
	require.Equal(t, "", app.status())

	stubPrompts(t, []string{"ann@example.com", "n"}, "secret1")
	require.NoError(t, app.SignIn(context.Background()))
	require.Equal(t, "(ann@example.com)", app.status())
}
