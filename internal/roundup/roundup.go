// Package roundup computes how many minor units are needed to round each
// qualifying card spend up to the next whole currency unit.
//
// All functions are pure.
package roundup

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/dmitrijs2005/roundup/internal/common"
)

// RoundUp returns the distance from minor to the next multiple of 100;
// 0 when minor already is one. Feed amounts are never negative.
func RoundUp(minor int64) int64 {
	r := minor % 100
	if r == 0 {
		return 0
	}
	return 100 - r
}

// Qualifies reports whether tx counts towards a round-up taken after
// cutoff: strictly later than cutoff, outgoing, not an internal transfer.
func Qualifies(tx models.Transaction, cutoff time.Time) bool {
	return tx.OccurredAt.After(cutoff) &&
		tx.Direction == common.DirectionOut &&
		tx.Source != common.SourceInternalTransfer
}

// Calculate sums RoundUp over the transactions that qualify after cutoff.
func Calculate(txs []models.Transaction, cutoff time.Time) int64 {
	var total int64
	for _, tx := range txs {
		if Qualifies(tx, cutoff) {
			total += RoundUp(tx.Amount.MinorUnits)
		}
	}
	return total
}

// CalculateFromISO is Calculate with an RFC 3339 cutoff. An empty cutoff
// means nothing has been rounded up yet.
func CalculateFromISO(txs []models.Transaction, cutoffISO string) (int64, error) {
	var cutoff time.Time
	if cutoffISO != "" {
		var err error
		cutoff, err = time.Parse(time.RFC3339Nano, cutoffISO)
		if err != nil {
			return 0, fmt.Errorf("parse cutoff %q: %w", cutoffISO, err)
		}
	}
	return Calculate(txs, cutoff), nil
}

// LatestIncluded returns the time of the newest transaction Calculate
// would count, and false if there is none.
func LatestIncluded(txs []models.Transaction, cutoff time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, tx := range txs {
		if Qualifies(tx, cutoff) && (!found || tx.OccurredAt.After(latest)) {
			latest, found = tx.OccurredAt, true
		}
	}
	return latest, found
}
