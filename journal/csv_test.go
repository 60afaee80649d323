package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeal(id string, profit float64, closeAt time.Time) DealRecord {
	return DealRecord{
		DealID:     id,
		RunID:      "RUN1",
		Ticket:     "T" + id,
		Symbol:     "EURUSD",
		Magic:      567,
		Side:       "Buy",
		Volume:     0.1,
		OpenPrice:  1.10000,
		ClosePrice: 1.10050,
		OpenTime:   closeAt.Add(-time.Hour),
		CloseTime:  closeAt,
		Profit:     profit,
		Fee:        0.5,
		Reason:     "take profit",
	}
}

func TestCSVHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deals.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	header, err := csv.NewReader(fh).Read()
	require.NoError(t, err)
	assert.Equal(t, csvHeader, header)
}

func TestCSVRecordDeal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deals.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	closeAt := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	require.NoError(t, j.RecordDeal(sampleDeal("D1", 5, closeAt)))
	require.NoError(t, j.Close())

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "D1", row[0])
	assert.Equal(t, "567", row[4])
	assert.Equal(t, "Buy", row[5])
	assert.Equal(t, "1.100500", row[8])
	assert.Equal(t, "2024-01-02T04:05:06Z", row[10])
	assert.Equal(t, "5.000000", row[11])
	assert.Equal(t, "take profit", row[13])
}

func TestCSVBadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing", "deals.csv"))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	s := Summarize([]DealRecord{
		sampleDeal("1", 10, now),
		sampleDeal("2", -4, now),
		sampleDeal("3", 6, now),
		sampleDeal("4", 0, now),
	})

	assert.Equal(t, 4, s.Deals)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 16.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 4.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 2.0, s.Fees, 1e-9)
	assert.InDelta(t, 10.0, s.Net(), 1e-9)
	assert.InDelta(t, 50.0, s.Accuracy(), 1e-9)
	assert.InDelta(t, 4.0, s.ProfitFactor(), 1e-9)

	empty := Summarize(nil)
	assert.Zero(t, empty.Accuracy())
	assert.Zero(t, empty.ProfitFactor())
	assert.NoError(t, Discard{}.RecordDeal(DealRecord{}))
}
