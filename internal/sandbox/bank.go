package sandbox

import (
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/dmitrijs2005/roundup/internal/common"
	"github.com/dmitrijs2005/roundup/internal/timex"
	"github.com/google/uuid"
)

const (
	goalStateActive = "ACTIVE"
	sourceCard      = "MASTER_CARD"
	sourceFaster    = "FASTER_PAYMENTS_IN"
)

// Bank is the in-memory state of one account holder with one account.
// It is safe for concurrent use.
type Bank struct {
	mu        sync.Mutex
	now       func() time.Time
	holderUID string
	holder    models.AccountHolder
	account   models.Account
	feed      []models.Transaction
	goals     []*models.SavingsGoal
	transfers map[string]struct{}
}

// NewBank returns a bank seeded with a handful of this week's
// transactions, spread between Monday 00:00 and now. Feed times are kept at
// millisecond precision, the resolution of the feed query parameters.
func NewBank(now func() time.Time) *Bank {
	if now == nil {
		now = time.Now
	}
	b := &Bank{
		now:       now,
		holderUID: uuid.NewString(),
		holder:    models.AccountHolder{Title: "Ms", FirstName: "Alex", LastName: "Morgan", Email: "alex@example.com"},
		account: models.Account{
			AccountUID:      uuid.NewString(),
			DefaultCategory: uuid.NewString(),
			Currency:        "GBP",
			Name:            "Personal",
		},
		transfers: make(map[string]struct{}),
	}
	b.seedFeed()
	return b
}

func (b *Bank) seedFeed() {
	seed := []struct {
		minor     int64
		direction string
		source    string
		reference string
	}{
		{435, common.DirectionOut, sourceCard, "Coffee House"},
		{520, common.DirectionOut, sourceCard, "Bakery"},
		{87, common.DirectionOut, sourceCard, "News Stand"},
		{250000, common.DirectionIn, sourceFaster, "Salary"},
		{1000, common.DirectionOut, sourceCard, "Cinema"},
	}

	now := b.now()
	start := timex.StartOfWeek(now)
	span := now.Sub(start)
	for i, s := range seed {
		at := start.Add(span * time.Duration(i+1) / time.Duration(len(seed)+1)).Truncate(time.Millisecond)
		b.feed = append(b.feed, models.Transaction{
			ID:         uuid.NewString(),
			Amount:     models.Money{Currency: b.account.Currency, MinorUnits: s.minor},
			Direction:  s.direction,
			Source:     s.source,
			OccurredAt: at,
			Reference:  s.reference,
		})
	}
}

func (b *Bank) HolderUID() string { return b.holderUID }

func (b *Bank) Account() models.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.account
}

func (b *Bank) Holder() models.AccountHolder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.holder
}

// AddTransaction appends tx to the feed, filling in an ID and currency when
// they are missing.
func (b *Bank) AddTransaction(tx models.Transaction) models.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Amount.Currency == "" {
		tx.Amount.Currency = b.account.Currency
	}
	b.feed = append(b.feed, tx)
	return tx
}

// TransactionsBetween returns the feed items of the account's category
// that occurred in [from, to], oldest first.
func (b *Bank) TransactionsBetween(accountUID, categoryUID string, from, to time.Time) ([]models.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if accountUID != b.account.AccountUID || categoryUID != b.account.DefaultCategory {
		return nil, common.ErrNotFound
	}

	out := make([]models.Transaction, 0, len(b.feed))
	for _, tx := range b.feed {
		if tx.OccurredAt.Before(from) || tx.OccurredAt.After(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (b *Bank) SavingsGoals(accountUID string) ([]models.SavingsGoal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if accountUID != b.account.AccountUID {
		return nil, common.ErrNotFound
	}
	out := make([]models.SavingsGoal, 0, len(b.goals))
	for _, g := range b.goals {
		out = append(out, *g)
	}
	return out, nil
}

// CreateSavingsGoal opens an empty goal and returns its UID.
func (b *Bank) CreateSavingsGoal(accountUID, name string, target *models.Money) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if accountUID != b.account.AccountUID {
		return "", common.ErrNotFound
	}
	if name == "" {
		return "", common.ErrInvalidArgument
	}
	if target != nil && (target.MinorUnits < 0 || target.Currency != b.account.Currency) {
		return "", common.ErrInvalidArgument
	}

	g := &models.SavingsGoal{
		ID:         uuid.NewString(),
		Name:       name,
		Target:     target,
		TotalSaved: models.Money{Currency: b.account.Currency},
		State:      goalStateActive,
	}
	b.goals = append(b.goals, g)
	return g.ID, nil
}

// AddMoney moves amount from the account into the goal and records the
// movement on the feed as an outgoing internal transfer. A transferUID that
// was already applied is accepted again without moving money twice.
func (b *Bank) AddMoney(accountUID, goalUID, transferUID string, amount models.Money) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if accountUID != b.account.AccountUID {
		return common.ErrNotFound
	}
	g := b.findGoal(goalUID)
	if g == nil {
		return common.ErrNotFound
	}
	if transferUID == "" || amount.MinorUnits <= 0 || amount.Currency != b.account.Currency {
		return common.ErrInvalidArgument
	}
	if _, done := b.transfers[transferUID]; done {
		return nil
	}

	g.TotalSaved.MinorUnits += amount.MinorUnits
	if g.Target != nil && g.Target.MinorUnits > 0 {
		g.SavedPercentage = int(g.TotalSaved.MinorUnits * 100 / g.Target.MinorUnits)
	}
	b.transfers[transferUID] = struct{}{}

	b.feed = append(b.feed, models.Transaction{
		ID:         transferUID,
		Amount:     amount,
		Direction:  common.DirectionOut,
		Source:     common.SourceInternalTransfer,
		OccurredAt: b.now().Truncate(time.Millisecond),
		Reference:  g.Name,
	})
	return nil
}

func (b *Bank) findGoal(uid string) *models.SavingsGoal {
	for _, g := range b.goals {
		if g.ID == uid {
			return g
		}
	}
	return nil
}
