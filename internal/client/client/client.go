package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/models"
)

// Client is the subset of the bank API the round-up flow uses.
type Client interface {
	PrimaryAccount(ctx context.Context) (*models.Account, error)
	AccountHolder(ctx context.Context) (*models.AccountHolder, error)
	TransactionsBetween(ctx context.Context, accountUID, categoryUID string, from, to time.Time) ([]models.Transaction, error)
	SavingsGoals(ctx context.Context, accountUID string) ([]models.SavingsGoal, error)
	CreateSavingsGoal(ctx context.Context, accountUID, name string, target models.Money) (string, error)
	AddMoney(ctx context.Context, accountUID, goalUID, transferUID string, amount models.Money) error
}
