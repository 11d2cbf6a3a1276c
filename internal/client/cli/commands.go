package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/roundup/internal/client/client"
	"github.com/dmitrijs2005/roundup/internal/client/services"
	"github.com/dmitrijs2005/roundup/internal/client/session"
	"github.com/dmitrijs2005/roundup/internal/common"
	"github.com/dmitrijs2005/roundup/internal/roundup"
	"github.com/fatih/color"
)

// getSimpleText is an indirection used to facilitate testing.
var getSimpleText = GetSimpleText

var (
	amountColor = color.New(color.FgGreen, color.Bold)
	faintColor  = color.New(color.Faint)
	errorColor  = color.New(color.FgRed)
)

// Summary prints the week's round-up.
func (a *App) Summary(ctx context.Context) error {
	sum, err := a.roundUp.Summary(ctx, a.account)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Round-up this week: %s\n", amountColor.Sprint(roundup.FormatMoney(sum.RoundUp)))
	if !sum.Cutoff.IsZero() {
		fmt.Fprintln(a.out, faintColor.Sprintf("already saved up to %s", sum.Cutoff.Local().Format("Mon 02 Jan 15:04")))
	}
	return nil
}

// Feed prints the week's transactions, newest last. Transactions that do
// not count towards the round-up are starred.
func (a *App) Feed(ctx context.Context) error {
	sum, err := a.roundUp.Summary(ctx, a.account)
	if err != nil {
		return err
	}
	if len(sum.Transactions) == 0 {
		fmt.Fprintln(a.out, "No transactions this week.")
		return nil
	}

	for _, tx := range sum.Transactions {
		mark := " "
		if !roundup.Qualifies(tx, sum.Cutoff) {
			mark = "*"
		}
		amount := tx.Amount
		if amount.MinorUnits < 0 {
			amount.MinorUnits = -amount.MinorUnits
		}
		sign := "-"
		if tx.Direction == common.DirectionIn {
			sign = "+"
		}
		fmt.Fprintf(a.out, "%s %s %s%-10s %s\n", mark,
			tx.OccurredAt.Local().Format("Mon 15:04"),
			sign, roundup.FormatMoney(amount),
			faintColor.Sprint(tx.Reference))
	}
	fmt.Fprintf(a.out, "Round-up: %s\n", amountColor.Sprint(roundup.FormatMoney(sum.RoundUp)))
	return nil
}

// Goals lists the savings goals and remembers them for Save.
func (a *App) Goals(ctx context.Context) error {
	goals, err := a.roundUp.SavingsGoals(ctx, a.account)
	if err != nil {
		return err
	}
	a.goals = goals

	if len(goals) == 0 {
		fmt.Fprintln(a.out, "No savings goals yet. Use 'newgoal' to create one.")
		return nil
	}
	for i, g := range goals {
		target := ""
		if g.Target != nil {
			target = " of " + roundup.FormatMoney(*g.Target)
		}
		fmt.Fprintf(a.out, "%d. %s: %s%s (%d%%)\n", i+1, g.Name, roundup.FormatMoney(g.TotalSaved), target, g.SavedPercentage)
	}
	return nil
}

// Save transfers the round-up into the n-th goal of the last listing.
func (a *App) Save(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: goal number %q", common.ErrInvalidArgument, arg)
	}
	if a.goals == nil {
		if err := a.Goals(ctx); err != nil {
			return err
		}
	}
	if n < 1 || n > len(a.goals) {
		return fmt.Errorf("%w: no goal %d", common.ErrInvalidArgument, n)
	}

	goal := a.goals[n-1]
	tr, err := a.roundUp.TransferToGoal(ctx, a.account, goal.ID)
	if err != nil {
		return err
	}
	a.goals = nil

	fmt.Fprintf(a.out, "Saved %s into %q.\n", amountColor.Sprint(roundup.FormatMoney(tr.Amount)), goal.Name)
	return nil
}

// NewGoal asks for a name and a target and moves the round-up into the new goal.
func (a *App) NewGoal(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Goal name", a.out)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: goal name is empty", common.ErrInvalidArgument)
	}

	raw, err := getSimpleText(a.reader, "Target amount (e.g. 250.00)", a.out)
	if err != nil {
		return err
	}
	target, err := roundup.ParseMajor(a.account.Currency, raw)
	if err != nil {
		return err
	}

	tr, err := a.roundUp.CreateGoalAndTransfer(ctx, a.account, name, target)
	if err != nil {
		return err
	}
	a.goals = nil

	fmt.Fprintf(a.out, "Created %q and saved %s into it.\n", name, amountColor.Sprint(roundup.FormatMoney(tr.Amount)))
	return nil
}

// Logout wipes the stored credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out. Stored credentials removed.")
	return nil
}

func (a *App) printErr(err error) {
	fmt.Fprintln(a.out, errorColor.Sprint(describe(err)))
}

// describe turns known failures into something a user can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, services.ErrNothingToTransfer):
		return "Nothing to save: no new spending since the last round-up."
	case errors.Is(err, session.ErrSeedRejected):
		return "The bank rejected the configured refresh token. Set a new ROUNDUP_SEED_REFRESH_TOKEN and restart."
	case errors.Is(err, session.ErrRefreshFailed):
		return "Could not refresh the session: " + err.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "The bank is unreachable, try again later."
	case errors.Is(err, common.ErrUnauthorized):
		return "The bank refused the request: " + err.Error()
	case errors.Is(err, roundup.ErrInvalidAmount), errors.Is(err, common.ErrInvalidArgument):
		return err.Error()
	}
	return "Error: " + err.Error()
}

var _ execIface = (*App)(nil)
