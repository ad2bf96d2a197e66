// Package liveingest implements the live subscriber (C5): consume one bus
// subject, decode each message into a Transaction, and hand it to the
// batch pipeline.
package liveingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pumpfun-analytics/ingestor/internal/batch"
	"github.com/pumpfun-analytics/ingestor/internal/bus"
	"github.com/pumpfun-analytics/ingestor/internal/extractor"
	"github.com/pumpfun-analytics/ingestor/internal/telepath"
	"github.com/pumpfun-analytics/ingestor/internal/txmodel"
	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

// Decoder turns one bus message payload into a Transaction. Its
// implementation lives with the upstream transaction-parser library,
// treated as an external collaborator.
type Decoder interface {
	Decode(payload []byte) (txmodel.Transaction, error)
}

// Subscriber owns one bus subscription and feeds a batch.Pipeline.
type Subscriber struct {
	client   *bus.Client
	subject  string
	decoder  Decoder
	pipeline *batch.Pipeline

	telepath  *telepath.Publisher
	authority int
}

// New builds a Subscriber. Call Start to begin consuming.
func New(client *bus.Client, subject string, decoder Decoder, pipeline *batch.Pipeline) *Subscriber {
	return &Subscriber{client: client, subject: subject, decoder: decoder, pipeline: pipeline}
}

// WithTelepath attaches an optional egress publisher: every non-empty
// extracted EventSet is additionally mirrored out as a Signal envelope at
// the given authority level (§4.10). Its failures are logged, never
// fatal, since it sits off the store's durability path.
func (s *Subscriber) WithTelepath(pub *telepath.Publisher, authority int) *Subscriber {
	s.telepath = pub
	s.authority = authority
	return s
}

// Start subscribes to the configured subject. Decode failures are fatal:
// the process terminates rather than risk silently dropping a
// transaction whose shape the decoder no longer understands.
func (s *Subscriber) Start() error {
	return s.client.Subscribe(s.subject, func(subject string, data []byte) {
		started := time.Now()

		tx, err := s.decoder.Decode(data)
		if err != nil {
			xlog.Fatalf("liveingest: decode failed on subject %q: %v", subject, err)
		}

		var set extractor.EventSet
		extractor.Extract(&tx, &set)
		s.pipeline.Submit(set, batch.StatsSample{
			Bytes:            len(data),
			ProcessingMicros: time.Since(started).Microseconds(),
		})

		s.emitTelepath(set)
	})
}

func (s *Subscriber) emitTelepath(set extractor.EventSet) {
	if s.telepath == nil || set.IsEmpty() {
		return
	}

	payload, err := json.Marshal(set)
	if err != nil {
		xlog.Warnf("liveingest: telepath marshal failed: %v", err)
		return
	}

	if err := s.telepath.Emit(context.Background(), s.authority, "event_set", payload, ""); err != nil {
		xlog.Warnf("liveingest: telepath emit failed: %v", err)
	}
}
