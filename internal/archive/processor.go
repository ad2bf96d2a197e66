package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/schollz/progressbar/v3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pumpfun-analytics/ingestor/internal/batch"
	"github.com/pumpfun-analytics/ingestor/internal/extractor"
	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

// decodeBufferSize reserves a reusable buffer sized generously above a
// typical decompressed block, avoiding per-slot reallocation.
const decodeBufferSize = 12 << 20 // 12 MiB

// Config controls one Processor's behavior.
type Config struct {
	DataDir       string
	ShowProgress  bool
}

// Processor drives one scan-and-process pass over a directory of archive
// units (C4).
type Processor struct {
	cfg       Config
	tracker   *Tracker
	converter Converter
	pipeline  *batch.Pipeline
	decoder   *zstd.Decoder
}

// NewProcessor builds a Processor. pipeline must already have Run started
// in its own goroutine.
func NewProcessor(cfg Config, tracker *Tracker, converter Converter, pipeline *batch.Pipeline) (*Processor, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("archive: zstd reader init: %w", err)
	}
	return &Processor{cfg: cfg, tracker: tracker, converter: converter, pipeline: pipeline, decoder: dec}, nil
}

// ProcessPendingFiles scans cfg.DataDir once and processes every unit not
// already completed, newest-first. Returns the number of units processed.
func (p *Processor) ProcessPendingFiles(ctx context.Context) (int, error) {
	units, err := Scan(p.cfg.DataDir)
	if err != nil {
		return 0, fmt.Errorf("archive: scan failed: %w", err)
	}

	processed := 0
	for _, u := range units {
		if p.tracker.IsProcessed(u.Prefix) {
			continue
		}
		if err := p.ProcessUnit(ctx, u); err != nil {
			return processed, fmt.Errorf("archive: unit %s: %w", u.Prefix, err)
		}
		processed++
	}
	return processed, nil
}

// ProcessUnit processes a single archive unit end to end. The completion
// record is only written after the pipeline's drain succeeds, so a crash
// mid-unit leaves it eligible for reprocessing.
func (p *Processor) ProcessUnit(ctx context.Context, u Unit) error {
	entries, err := p.loadMeta(u.MetaPath)
	if err != nil {
		return fmt.Errorf("load meta: %w", err)
	}

	bin, err := os.Open(u.BinPath)
	if err != nil {
		return fmt.Errorf("open bin: %w", err)
	}
	defer bin.Close()

	var bar *progressbar.ProgressBar
	if p.cfg.ShowProgress {
		bar = progressbar.Default(int64(len(entries)), u.Prefix)
	}

	buf := make([]byte, 0, decodeBufferSize)

	for _, entry := range entries {
		if bar != nil {
			_ = bar.Add(1)
		}
		if entry.Offset == nil {
			continue
		}

		if _, err := bin.Seek(int64(*entry.Offset), io.SeekStart); err != nil {
			xlog.Debugf("archive: seek failed slot=%d: %v", entry.Slot, err)
			continue
		}

		compressed := make([]byte, entry.Size)
		if _, err := io.ReadFull(bin, compressed); err != nil {
			xlog.Debugf("archive: read failed slot=%d: %v", entry.Slot, err)
			continue
		}

		decoded, err := p.decoder.DecodeAll(compressed, buf[:0])
		if err != nil {
			xlog.Debugf("archive: zstd decode failed slot=%d: %v", entry.Slot, err)
			continue
		}

		var block Block
		if err := msgpack.Unmarshal(decoded, &block); err != nil {
			xlog.Debugf("archive: block decode failed slot=%d: %v", entry.Slot, err)
			continue
		}

		p.handleBlock(block)
	}

	p.pipeline.Drain(ctx)

	if err := p.tracker.Mark(u.Prefix); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

func (p *Processor) handleBlock(block Block) {
	for _, raw := range block.Transactions {
		started := time.Now()

		tx, err := p.converter.Convert(raw)
		if err != nil {
			xlog.Debugf("archive: tx convert failed slot=%d idx=%d: %v", raw.Slot, raw.TransactionIndex, err)
			continue
		}

		var set extractor.EventSet
		extractor.Extract(&tx, &set)
		p.pipeline.Submit(set, batch.StatsSample{
			Bytes:            len(raw.Instructions),
			ProcessingMicros: time.Since(started).Microseconds(),
		})
	}
}

func (p *Processor) loadMeta(path string) ([]SlotEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []SlotEntry
	if err := msgpack.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
