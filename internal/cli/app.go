package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/biometric"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/controller"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/identity"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/auth/vault"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/config"
	"github.com/erangaIrugalbandara/PawFinderMess/internal/logging"
)

// App wires the auth stack behind a terminal front end. It owns the vault
// database handle and the controller lifecycle.
type App struct {
	config     *config.Config
	logger     logging.Logger
	controller *controller.Controller
	store      *vault.SQLiteStore
	reader     *bufio.Reader
	writer     io.Writer
}

// NewApp builds a fully wired App. When offline is true the backend is an
// in-process account store, useful for demos and development without network
// access.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, offline bool) (*App, error) {
	store, err := vault.OpenSQLiteStore(ctx, cfg.VaultDBPath)
	if err != nil {
		logger.Error(ctx, "vault database init failed", "error", err)
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)
	writer := io.Writer(os.Stdout)

	gate := biometric.New(newTerminalEvaluator(reader, writer), logger)
	v := vault.New(store, gate, cfg.AppName, logger)

	var backend identity.Client
	if offline {
		backend = identity.NewMemoryClient()
	} else {
		backend = identity.NewRESTClient(cfg.BackendEndpoint, cfg.APIKey, cfg.RequestTimeout, logger)
	}

	ctrl := controller.New(backend, v, gate, logger)
	ctrl.SetMaxAutoPromptFailures(cfg.AutoPromptMaxFailures)

	return &App{
		config:     cfg,
		logger:     logger,
		controller: ctrl,
		store:      store,
		reader:     reader,
		writer:     writer,
	}, nil
}

// Run starts the controller and hands control to the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.controller.Start(ctx)
	defer a.close()

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
	return nil
}

func (a *App) close() {
	a.controller.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn(context.Background(), "vault database close failed", "error", err)
	}
}

func (a *App) isSignedIn() bool {
	return a.controller.State().IsAuthenticated
}

func (a *App) status() string {
	st := a.controller.State()
	if st.Session != nil {
		return "(" + st.Session.Email + ")"
	}
	return ""
}
