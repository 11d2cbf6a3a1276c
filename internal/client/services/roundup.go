// Package services contains the application services behind the CLI.
// This file defines the round-up service: account lookup, the current
// week's feed, the round-up total and transfers into savings goals.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/client"
	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/dmitrijs2005/roundup/internal/logging"
	"github.com/dmitrijs2005/roundup/internal/roundup"
	"github.com/dmitrijs2005/roundup/internal/timex"
	"github.com/google/uuid"
)

var (
	ErrNothingToTransfer = errors.New("nothing to round up")
	ErrMissingAccount    = errors.New("missing account or holder")
)

// CutoffStore persists the time of the newest transaction already saved.
type CutoffStore interface {
	Get(ctx context.Context) (time.Time, error)
	Save(ctx context.Context, t time.Time) error
}

// Summary is the current week as seen by the round-up flow.
type Summary struct {
	Transactions []models.Transaction
	// Cutoff is the newest transaction time already transferred (zero if none).
	Cutoff  time.Time
	RoundUp models.Money
}

// Transfer describes a completed move of the round-up into a goal.
type Transfer struct {
	TransferUID string
	GoalUID     string
	Amount      models.Money
}

// RoundUpService defines the round-up use cases.
//
// Contract:
//   - InitAccountDetails: primary account plus holder's first name; both required.
//   - Summary: this week's feed (Monday 00:00 local to now) and its round-up.
//   - SavingsGoals: goals of the account.
//   - TransferToGoal: move the round-up into an existing goal and advance the cutoff.
//   - CreateGoalAndTransfer: create a goal, then TransferToGoal into it.
//
// A zero round-up is refused with ErrNothingToTransfer before anything is sent.
type RoundUpService interface {
	InitAccountDetails(ctx context.Context) (*models.AccountDetails, error)
	Summary(ctx context.Context, acc *models.AccountDetails) (*Summary, error)
	SavingsGoals(ctx context.Context, acc *models.AccountDetails) ([]models.SavingsGoal, error)
	TransferToGoal(ctx context.Context, acc *models.AccountDetails, goalUID string) (*Transfer, error)
	CreateGoalAndTransfer(ctx context.Context, acc *models.AccountDetails, name string, target models.Money) (*Transfer, error)
}

type roundUpService struct {
	client client.Client
	cutoff CutoffStore
	log    logging.Logger
	now    func() time.Time
	newID  func() string

	// serializes the cutoff read-modify-write of transfers
	mu sync.Mutex
}

func NewRoundUpService(c client.Client, cutoff CutoffStore, log logging.Logger) RoundUpService {
	return newRoundUpService(c, cutoff, log, time.Now, uuid.NewString)
}

func newRoundUpService(c client.Client, cutoff CutoffStore, log logging.Logger, now func() time.Time, newID func() string) *roundUpService {
	if log == nil {
		log = logging.Nop()
	}
	return &roundUpService{client: c, cutoff: cutoff, log: log, now: now, newID: newID}
}

func (s *roundUpService) InitAccountDetails(ctx context.Context) (*models.AccountDetails, error) {
	acc, err := s.client.PrimaryAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("primary account: %w", err)
	}
	holder, err := s.client.AccountHolder(ctx)
	if err != nil {
		return nil, fmt.Errorf("account holder: %w", err)
	}
	if acc.AccountUID == "" || acc.DefaultCategory == "" || holder.FirstName == "" {
		return nil, ErrMissingAccount
	}

	return &models.AccountDetails{
		AccountUID:  acc.AccountUID,
		CategoryUID: acc.DefaultCategory,
		Currency:    acc.Currency,
		HolderName:  holder.FirstName,
	}, nil
}

func (s *roundUpService) Summary(ctx context.Context, acc *models.AccountDetails) (*Summary, error) {
	now := s.now()
	txs, err := s.client.TransactionsBetween(ctx, acc.AccountUID, acc.CategoryUID, timex.StartOfWeek(now), now)
	if err != nil {
		return nil, fmt.Errorf("transactions: %w", err)
	}

	cutoff, err := s.cutoff.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("cutoff: %w", err)
	}

	return &Summary{
		Transactions: txs,
		Cutoff:       cutoff,
		RoundUp:      models.Money{Currency: acc.Currency, MinorUnits: roundup.Calculate(txs, cutoff)},
	}, nil
}

func (s *roundUpService) SavingsGoals(ctx context.Context, acc *models.AccountDetails) ([]models.SavingsGoal, error) {
	goals, err := s.client.SavingsGoals(ctx, acc.AccountUID)
	if err != nil {
		return nil, fmt.Errorf("savings goals: %w", err)
	}
	return goals, nil
}

func (s *roundUpService) TransferToGoal(ctx context.Context, acc *models.AccountDetails, goalUID string) (*Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, err := s.pending(ctx, acc)
	if err != nil {
		return nil, err
	}
	return s.transfer(ctx, acc, goalUID, sum)
}

func (s *roundUpService) CreateGoalAndTransfer(ctx context.Context, acc *models.AccountDetails, name string, target models.Money) (*Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, err := s.pending(ctx, acc)
	if err != nil {
		return nil, err
	}

	goalUID, err := s.client.CreateSavingsGoal(ctx, acc.AccountUID, name, target)
	if err != nil {
		return nil, fmt.Errorf("create savings goal: %w", err)
	}
	s.log.Info(ctx, "savings goal created", "goal", goalUID)

	return s.transfer(ctx, acc, goalUID, sum)
}

// pending returns the summary if there is something to transfer.
func (s *roundUpService) pending(ctx context.Context, acc *models.AccountDetails) (*Summary, error) {
	sum, err := s.Summary(ctx, acc)
	if err != nil {
		return nil, err
	}
	if sum.RoundUp.MinorUnits == 0 {
		return nil, ErrNothingToTransfer
	}
	return sum, nil
}

func (s *roundUpService) transfer(ctx context.Context, acc *models.AccountDetails, goalUID string, sum *Summary) (*Transfer, error) {
	id := s.newID()
	if err := s.client.AddMoney(ctx, acc.AccountUID, goalUID, id, sum.RoundUp); err != nil {
		return nil, fmt.Errorf("transfer to goal: %w", err)
	}
	s.log.Info(ctx, "round-up transferred", "goal", goalUID, "transfer", id, "minor_units", sum.RoundUp.MinorUnits)

	if latest, ok := roundup.LatestIncluded(sum.Transactions, sum.Cutoff); ok {
		if err := s.cutoff.Save(ctx, latest); err != nil {
			// money already moved; the next total would double count
			return nil, fmt.Errorf("advance cutoff after transfer %s: %w", id, err)
		}
	}

	return &Transfer{TransferUID: id, GoalUID: goalUID, Amount: sum.RoundUp}, nil
}
