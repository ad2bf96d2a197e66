// Package telepath implements the optional live-export signal envelope
// (§6 "Egress signal envelope"): a JetStream-backed named durable pub/sub
// stream carrying TelepathSignal envelopes at one of six authority
// levels. Disabled by default; failures here never affect ingestion.
package telepath

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/pumpfun-analytics/ingestor/internal/bus"
	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

// Signal is the wire envelope published on a telepath stream.
type Signal struct {
	TimestampSec  int64  `json:"timestamp_sec"`
	TimestampNano int64  `json:"timestamp_nano"`
	UUID          string `json:"uuid"`
	ParentUUID    string `json:"parent_uuid,omitempty"`
	SenderAgent   string `json:"sender_agent"`
	Authority     int    `json:"authority"` // 0..5
	ContentType   string `json:"content_type"`
	Payload       []byte `json:"payload"`
}

// StreamConfig configures one named telepath stream.
type StreamConfig struct {
	Name           string
	TTL            time.Duration
	MaxMsgs        int64
	MaxBytes       int64
	MemoryBacked   bool
	DiscardOld     bool
	SingleReplica  bool
}

// Publisher emits Signal envelopes onto a named telepath stream.
type Publisher struct {
	client      *bus.Client
	streamName  string
	senderAgent string
}

// NewPublisher creates (or reuses) the JetStream stream "telepath_<name>"
// and returns a Publisher bound to it.
func NewPublisher(ctx context.Context, client *bus.Client, cfg StreamConfig, senderAgent string) (*Publisher, error) {
	streamName := "telepath_" + cfg.Name

	storage := jetstream.FileStorage
	if cfg.MemoryBacked {
		storage = jetstream.MemoryStorage
	}
	discard := jetstream.DiscardNew
	if cfg.DiscardOld {
		discard = jetstream.DiscardOld
	}
	replicas := 3
	if cfg.SingleReplica {
		replicas = 1
	}

	_, err := client.JetStream().CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{streamName + ".>"},
		MaxAge:    cfg.TTL,
		MaxMsgs:   cfg.MaxMsgs,
		MaxBytes:  cfg.MaxBytes,
		Storage:   storage,
		Discard:   discard,
		Replicas:  replicas,
	})
	if err != nil {
		return nil, fmt.Errorf("telepath: create stream %q: %w", streamName, err)
	}

	return &Publisher{client: client, streamName: streamName, senderAgent: senderAgent}, nil
}

// Emit publishes payload as a new Signal at the given authority level.
// Authority must be in [0, 5]; out-of-range values are clamped.
func (p *Publisher) Emit(ctx context.Context, authority int, contentType string, payload []byte, parentUUID string) error {
	if authority < 0 {
		authority = 0
	}
	if authority > 5 {
		authority = 5
	}

	now := time.Now()
	sig := Signal{
		TimestampSec:  now.Unix(),
		TimestampNano: int64(now.Nanosecond()),
		UUID:          uuid.NewString(),
		ParentUUID:    parentUUID,
		SenderAgent:   p.senderAgent,
		Authority:     authority,
		ContentType:   contentType,
		Payload:       payload,
	}

	data, err := encode(sig)
	if err != nil {
		return fmt.Errorf("telepath: encode signal: %w", err)
	}

	subject := fmt.Sprintf("%s.lv%d", p.streamName, authority)
	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		xlog.Warnf("telepath: publish to %q failed: %v", subject, err)
		return err
	}
	return nil
}
