package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/models"
)

// fakeClient implements client.Client for the service tests.
type fakeClient struct {
	mu sync.Mutex

	Account    *models.Account
	AccountErr error
	Holder     *models.AccountHolder
	HolderErr  error

	Txs     []models.Transaction
	TxsErr  error
	TxsFrom time.Time
	TxsTo   time.Time

	Goals    []models.SavingsGoal
	GoalsErr error

	CreatedUID string
	CreateErr  error
	Created    []string

	AddErr    error
	Transfers []addMoneyCall
}

type addMoneyCall struct {
	AccountUID, GoalUID, TransferUID string
	Amount                           models.Money
}

func (f *fakeClient) PrimaryAccount(context.Context) (*models.Account, error) {
	return f.Account, f.AccountErr
}

func (f *fakeClient) AccountHolder(context.Context) (*models.AccountHolder, error) {
	return f.Holder, f.HolderErr
}

func (f *fakeClient) TransactionsBetween(_ context.Context, _, _ string, from, to time.Time) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TxsFrom, f.TxsTo = from, to
	return f.Txs, f.TxsErr
}

func (f *fakeClient) SavingsGoals(context.Context, string) ([]models.SavingsGoal, error) {
	return f.Goals, f.GoalsErr
}

func (f *fakeClient) CreateSavingsGoal(_ context.Context, _ string, name string, _ models.Money) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, name)
	return f.CreatedUID, f.CreateErr
}

func (f *fakeClient) AddMoney(_ context.Context, accountUID, goalUID, transferUID string, amount models.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return f.AddErr
	}
	f.Transfers = append(f.Transfers, addMoneyCall{accountUID, goalUID, transferUID, amount})
	return nil
}

type memCutoff struct {
	t       time.Time
	saves   int
	getErr  error
	saveErr error
}

func (m *memCutoff) Get(context.Context) (time.Time, error) { return m.t, m.getErr }

func (m *memCutoff) Save(_ context.Context, t time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.t = t
	m.saves++
	return nil
}
