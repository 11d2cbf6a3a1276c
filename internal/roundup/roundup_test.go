package roundup

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	t, err := time.Parse(time.RFC3339, "2025-01-01T"+hhmm+":00Z")
	if err != nil {
		panic(err)
	}
	return t
}

func tx(minor int64, dir string, when string) models.Transaction {
	return models.Transaction{
		Amount:     models.Money{Currency: "GBP", MinorUnits: minor},
		Direction:  dir,
		Source:     "MASTER_CARD",
		OccurredAt: at(when),
	}
}

func weekFeed() []models.Transaction {
	return []models.Transaction{
		tx(265, "OUT", "09:00"),
		tx(435, "OUT", "10:00"),
		tx(520, "OUT", "10:10"),
		tx(87, "OUT", "10:20"),
		tx(423, "IN", "10:25"),
	}
}

func TestCalculate_Example(t *testing.T) {
	got, err := CalculateFromISO(weekFeed(), "2025-01-01T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(158), got)
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{0, 0},
		{100, 0},
		{2000, 0},
		{1, 99},
		{99, 1},
		{435, 65},
		{87, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundUp(tt.in), "RoundUp(%d)", tt.in)
	}
}

func TestCalculate_WholePoundsContributeNothing(t *testing.T) {
	txs := []models.Transaction{tx(300, "OUT", "10:00"), tx(100, "OUT", "11:00")}
	assert.Equal(t, int64(0), Calculate(txs, time.Time{}))
}

func TestCalculate_Filters(t *testing.T) {
	cutoff := at("10:00")

	internal := tx(150, "OUT", "11:00")
	internal.Source = "INTERNAL_TRANSFER"

	txs := []models.Transaction{
		tx(150, "OUT", "10:00"), // exactly at cutoff: already counted
		tx(150, "OUT", "09:59"),
		tx(150, "IN", "11:00"),
		internal,
		tx(150, "OUT", "10:01"),
	}
	assert.Equal(t, int64(50), Calculate(txs, cutoff))
}

func TestCalculate_IsRepeatable(t *testing.T) {
	txs := weekFeed()
	snapshot := append([]models.Transaction(nil), txs...)
	cutoff := at("09:30")

	first := Calculate(txs, cutoff)
	second := Calculate(txs, cutoff)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, txs)
}

func TestCalculateFromISO(t *testing.T) {
	got, err := CalculateFromISO(weekFeed(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(35+65+80+13), got)

	got, err = CalculateFromISO(weekFeed(), "2025-01-01T09:30:00.000+00:00")
	require.NoError(t, err)
	assert.Equal(t, int64(158), got)

	_, err = CalculateFromISO(weekFeed(), "yesterday")
	require.Error(t, err)
}

func TestLatestIncluded(t *testing.T) {
	latest, ok := LatestIncluded(weekFeed(), at("09:30"))
	require.True(t, ok)
	assert.Equal(t, at("10:20"), latest, "the IN transaction at 10:25 does not count")

	_, ok = LatestIncluded(weekFeed(), at("10:20"))
	assert.False(t, ok)
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   models.Money
		want string
	}{
		{models.Money{Currency: "GBP", MinorUnits: 158}, "£1.58"},
		{models.Money{Currency: "GBP", MinorUnits: 5}, "£0.05"},
		{models.Money{Currency: "EUR", MinorUnits: 120000}, "€1200.00"},
		{models.Money{Currency: "USD", MinorUnits: -250}, "-$2.50"},
		{models.Money{Currency: "SEK", MinorUnits: 1999}, "SEK19.99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in))
	}
}

func TestParseMajor(t *testing.T) {
	m, err := ParseMajor("GBP", "12.5")
	require.NoError(t, err)
	assert.Equal(t, models.Money{Currency: "GBP", MinorUnits: 1250}, m)

	m, err = ParseMajor("GBP", "300")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), m.MinorUnits)

	for _, bad := range []string{"", "abc", "-1", "1.234"} {
		_, err := ParseMajor("GBP", bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}
