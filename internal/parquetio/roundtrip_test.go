package parquetio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpfun-analytics/ingestor/internal/events"
)

func TestWriteReadDaily_RoundTrip(t *testing.T) {
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := []events.Row{
		events.TradeEventRow{
			Key:       events.Key{Signature: "sig1", Slot: 10, TransactionIndex: 1, InstructionIndex: 2, Timestamp: uint32(day.Unix())},
			Mint:      "mint1",
			SolAmount: 1000,
			IsBuy:     1,
		},
	}

	root := t.TempDir()
	path, err := WriteDaily(root, "pumpfun_trade_event_v2", day, rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pumpfun_trade_event_v2", "pumpfun_trade_event_v2_2026-07-01.parquet"), path)

	rec, err := ReadFile(path)
	require.NoError(t, err)
	defer rec.Release()

	assert.EqualValues(t, 1, rec.NumRows())

	vals, err := RecordToValues(rec)
	require.NoError(t, err)
	require.Len(t, vals, 1)

	got, err := events.ScanInto[events.TradeEventRow](vals[0])
	require.NoError(t, err)
	assert.Equal(t, rows[0], events.Row(got))
}
