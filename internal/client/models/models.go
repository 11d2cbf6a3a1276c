// Package models defines the client-side shapes of the bank's REST resources.
// JSON names follow the upstream API.
package models

import "time"

// Money is an amount in the currency's minor units (pence for GBP).
type Money struct {
	Currency   string `json:"currency"`
	MinorUnits int64  `json:"minorUnits"`
}

// Transaction is one item of the account feed.
type Transaction struct {
	// ID is the feed item UID.
	ID string `json:"feedItemUid"`

	Amount Money `json:"amount"`

	// Direction is "IN" or "OUT".
	Direction string `json:"direction"`

	// Source classifies the transaction, e.g. "MASTER_CARD" or
	// "INTERNAL_TRANSFER".
	Source string `json:"source"`

	// OccurredAt is the upstream transactionTime.
	OccurredAt time.Time `json:"transactionTime"`

	SpendingCategory string `json:"spendingCategory,omitempty"`

	// Reference is the counterparty or merchant label, for display only.
	Reference string `json:"counterPartyName,omitempty"`
}

// SavingsGoal is a savings space attached to an account.
type SavingsGoal struct {
	ID              string `json:"savingsGoalUid"`
	Name            string `json:"name"`
	Target          *Money `json:"target,omitempty"`
	TotalSaved      Money  `json:"totalSaved"`
	SavedPercentage int    `json:"savedPercentage"`
	State           string `json:"state"`
}

// Account is one entry of the accounts list.
type Account struct {
	AccountUID      string `json:"accountUid"`
	DefaultCategory string `json:"defaultCategory"`
	Currency        string `json:"currency"`
	Name            string `json:"name"`
}

// AccountHolder is the individual owning the accounts.
type AccountHolder struct {
	Title     string `json:"title,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// AccountDetails is what the round-up flow needs to know about the user:
// the primary account, its default category and the holder's first name.
type AccountDetails struct {
	AccountUID  string
	CategoryUID string
	Currency    string
	HolderName  string
}
