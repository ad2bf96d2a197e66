package batch

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpfun-analytics/ingestor/internal/events"
	"github.com/pumpfun-analytics/ingestor/internal/extractor"
	"github.com/pumpfun-analytics/ingestor/internal/flushpool"
	"github.com/pumpfun-analytics/ingestor/internal/store"
)

type countingBatch struct {
	clickhouse.Batch
	appended int
}

func (b *countingBatch) Append(v ...any) error { b.appended++; return nil }
func (b *countingBatch) Send() error           { return nil }

type countingDriver struct {
	inserts chan string
}

func (d *countingDriver) PrepareBatch(ctx context.Context, query string, opts ...clickhouse.PrepareBatchOption) (clickhouse.Batch, error) {
	d.inserts <- query
	return &countingBatch{}, nil
}
func (d *countingDriver) Query(ctx context.Context, query string, args ...any) (clickhouse.Rows, error) {
	return nil, nil
}
func (d *countingDriver) Exec(ctx context.Context, query string, args ...any) error { return nil }
func (d *countingDriver) Close() error                                             { return nil }

func TestPipeline_FlushesOnThreshold(t *testing.T) {
	d := &countingDriver{inserts: make(chan string, 16)}
	st := store.NewForTest(d)
	pool := flushpool.New(3)
	tables := events.DefaultTableNames()

	p := New(Config{Threshold: 2, Name: "test"}, tables, pool, st)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		var set extractor.EventSet
		set.Trade = append(set.Trade, events.TradeEventRow{})
		p.Submit(set, StatsSample{Bytes: 10, ProcessingMicros: 5})
	}

	p.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not drain in time")
	}

	// The second row reaches the threshold of 2 and flushes; the third is
	// flushed by the final drain on Close. Without the threshold flush
	// there would be only one insert.
	assert.Len(t, d.inserts, 2)
}

func TestPipeline_EventSetLenAndEmpty(t *testing.T) {
	var s extractor.EventSet
	assert.True(t, s.IsEmpty())
	s.AmmBuy = append(s.AmmBuy, events.AmmBuyEventRow{})
	require.Equal(t, 1, s.Len())
	assert.False(t, s.IsEmpty())
}
