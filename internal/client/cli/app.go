package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/dmitrijs2005/roundup/internal/client/services"
	"github.com/dmitrijs2005/roundup/internal/logging"
)

type App struct {
	roundUp services.RoundUpService
	session services.SessionService
	log     logging.Logger

	reader *bufio.Reader
	out    io.Writer

	account *models.AccountDetails
	// goals as last shown to the user; "save <n>" indexes into it
	goals []models.SavingsGoal
}

func NewApp(roundUp services.RoundUpService, session services.SessionService, in io.Reader, out io.Writer, log logging.Logger) *App {
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		roundUp: roundUp,
		session: session,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run connects, loads the account and then serves the REPL until the user
// quits or input ends. Errors before the REPL starts are returned.
func (a *App) Run(ctx context.Context) error {
	if err := a.session.Connect(ctx); err != nil {
		return err
	}

	acc, err := a.roundUp.InitAccountDetails(ctx)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	a.account = acc
	a.log.Info(ctx, "account loaded", "account", acc.AccountUID)

	fmt.Fprintf(a.out, "Hello, %s! Type 'help' for commands.\n", acc.HolderName)
	if err := a.Summary(ctx); err != nil {
		a.printErr(err)
	}

	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) status() string {
	if a.account == nil {
		return ""
	}
	return "(" + a.account.HolderName + ")"
}
