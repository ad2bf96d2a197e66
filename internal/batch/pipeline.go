// Package batch implements the streaming batch pipeline (C2): per-stream
// accumulation, size/time-based flush, and dispatch of flush tasks onto
// the bounded concurrent flush pool (internal/flushpool).
package batch

import (
	"context"
	"time"

	"github.com/pumpfun-analytics/ingestor/internal/events"
	"github.com/pumpfun-analytics/ingestor/internal/extractor"
	"github.com/pumpfun-analytics/ingestor/internal/flushpool"
	"github.com/pumpfun-analytics/ingestor/internal/store"
	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

// StatsSample carries per-transaction telemetry from the producer to the
// flusher's summary counters.
type StatsSample struct {
	Bytes            int
	ProcessingMicros int64
}

// Config parameterizes one pipeline instance. The archive path and the
// live path use different values (§4.2): archive has no flush ticker and
// a threshold of 1000; live flushes every 100ms with a threshold of 100.
type Config struct {
	Threshold       int
	FlushInterval   time.Duration // 0 disables the tick-based flush
	SummaryInterval time.Duration
	Name            string // used in summary log lines, e.g. "archive" / "live"
}

// Pipeline accumulates extracted rows and drives flushes into the store
// through a bounded worker pool. The accumulator and period counters are
// touched only by the goroutine running Run; other goroutines interact
// with it through Submit, Drain and Close.
type Pipeline struct {
	cfg    Config
	tables events.TableNames
	pool   *flushpool.Pool
	st     *store.Client

	eventsCh *UnboundedChan[extractor.EventSet]
	statsCh  *UnboundedChan[StatsSample]
	drainCh  chan drainRequest

	acc extractor.EventSet

	periodTx     int64
	periodBytes  int64
	periodMicros int64
}

// New creates a Pipeline. Call Run in its own goroutine to start the
// flusher loop.
func New(cfg Config, tables events.TableNames, pool *flushpool.Pool, st *store.Client) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		tables:   tables,
		pool:     pool,
		st:       st,
		eventsCh: NewUnbounded[extractor.EventSet](),
		statsCh:  NewUnbounded[StatsSample](),
		drainCh:  make(chan drainRequest),
	}
}

type drainRequest struct{ done chan struct{} }

// Drain flushes any non-empty accumulator and blocks until the flush
// pool's wait_all() returns. Used by the archive processor between units:
// the completion record for a unit must only be written once every row
// from it has actually reached the store. Must not be called
// concurrently with itself.
func (p *Pipeline) Drain(ctx context.Context) {
	req := drainRequest{done: make(chan struct{})}
	p.drainCh <- req
	<-req.done
}

// Submit hands one transaction's extraction output and telemetry to the
// pipeline. Never blocks.
func (p *Pipeline) Submit(set extractor.EventSet, sample StatsSample) {
	p.eventsCh.Send(set)
	p.statsCh.Send(sample)
}

// Close signals no further Submit calls will occur. Run drains remaining
// buffered work before returning.
func (p *Pipeline) Close() {
	p.eventsCh.Close()
	p.statsCh.Close()
}

// Run is the flusher task: a cooperative loop selecting on
// (events-arrival, stats-arrival, flush-tick, summary-tick). It returns
// once both channels are closed and drained, after a final flush and
// pool.WaitAll().
func (p *Pipeline) Run(ctx context.Context) {
	var tickCh <-chan time.Time
	if p.cfg.FlushInterval > 0 {
		ticker := time.NewTicker(p.cfg.FlushInterval)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	summaryInterval := p.cfg.SummaryInterval
	if summaryInterval <= 0 {
		summaryInterval = 10 * time.Second
	}
	summaryTicker := time.NewTicker(summaryInterval)
	defer summaryTicker.Stop()

	eventsOpen, statsOpen := true, true
	eventsCh, statsCh := p.eventsCh.Recv(), p.statsCh.Recv()

	for eventsOpen || statsOpen {
		select {
		case set, ok := <-eventsCh:
			if !ok {
				eventsOpen = false
				eventsCh = nil
				continue
			}
			p.accumulate(set)
			if p.shouldFlush() {
				p.flush(ctx)
			}

		case sample, ok := <-statsCh:
			if !ok {
				statsOpen = false
				statsCh = nil
				continue
			}
			p.periodTx++
			p.periodBytes += int64(sample.Bytes)
			p.periodMicros += sample.ProcessingMicros

		case <-tickCh:
			if !p.acc.IsEmpty() {
				p.flush(ctx)
			}

		case <-summaryTicker.C:
			p.emitSummary()

		case req := <-p.drainCh:
			if !p.acc.IsEmpty() {
				p.flush(ctx)
			}
			p.pool.WaitAll()
			close(req.done)
		}
	}

	// Final drain: flush whatever remains and wait for all outstanding
	// flush-pool tasks before returning.
	if !p.acc.IsEmpty() {
		p.flush(ctx)
	}
	p.pool.WaitAll()
}

func (p *Pipeline) accumulate(set extractor.EventSet) {
	p.acc.Trade = append(p.acc.Trade, set.Trade...)
	p.acc.Create = append(p.acc.Create, set.Create...)
	p.acc.Migrate = append(p.acc.Migrate, set.Migrate...)
	p.acc.AmmBuy = append(p.acc.AmmBuy, set.AmmBuy...)
	p.acc.AmmSell = append(p.acc.AmmSell, set.AmmSell...)
	p.acc.AmmCreatePool = append(p.acc.AmmCreatePool, set.AmmCreatePool...)
	p.acc.AmmDeposit = append(p.acc.AmmDeposit, set.AmmDeposit...)
	p.acc.AmmWithdraw = append(p.acc.AmmWithdraw, set.AmmWithdraw...)
}

// shouldFlush reports whether any one stream has reached the configured
// threshold. All eight streams flush together (§9 Open Question 1).
func (p *Pipeline) shouldFlush() bool {
	t := p.cfg.Threshold
	return len(p.acc.Trade) >= t || len(p.acc.Create) >= t || len(p.acc.Migrate) >= t ||
		len(p.acc.AmmBuy) >= t || len(p.acc.AmmSell) >= t || len(p.acc.AmmCreatePool) >= t ||
		len(p.acc.AmmDeposit) >= t || len(p.acc.AmmWithdraw) >= t
}

// flush moves the current accumulator out and submits one pool task per
// non-empty stream.
func (p *Pipeline) flush(ctx context.Context) {
	taken := p.acc.Take()

	submit := func(table string, rows []events.Row) {
		if len(rows) == 0 {
			return
		}
		p.pool.Submit(ctx, func() {
			if err := p.st.InsertRows(ctx, table, rows); err != nil {
				xlog.Fatalf("batch: fatal insert error table=%s rows=%d: %v", table, len(rows), err)
			}
		})
	}

	submit(p.tables.Trade, toRows(taken.Trade))
	submit(p.tables.Create, toRows(taken.Create))
	submit(p.tables.Migrate, toRows(taken.Migrate))
	submit(p.tables.AmmBuy, toRows(taken.AmmBuy))
	submit(p.tables.AmmSell, toRows(taken.AmmSell))
	submit(p.tables.AmmCreatePool, toRows(taken.AmmCreatePool))
	submit(p.tables.AmmDeposit, toRows(taken.AmmDeposit))
	submit(p.tables.AmmWithdraw, toRows(taken.AmmWithdraw))
}

func toRows[T events.Row](in []T) []events.Row {
	if len(in) == 0 {
		return nil
	}
	out := make([]events.Row, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func (p *Pipeline) emitSummary() {
	if p.periodTx == 0 {
		return
	}
	xlog.Infof("%s: %d tx, %d bytes, %dus cumulative processing in period",
		p.cfg.Name, p.periodTx, p.periodBytes, p.periodMicros)
	p.periodTx, p.periodBytes, p.periodMicros = 0, 0, 0
}
