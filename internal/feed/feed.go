// Package feed subscribes to a NATS subject carrying telegram batches and
// pushes them through the ingest pipeline.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"telegram_parser/internal/ingest"
)

// Config holds NATS subscription settings.
type Config struct {
	URL     string // e.g. nats://localhost:4222
	Subject string
	Queue   string // queue group, empty for plain subscription
}

// batchPayload is the JSON form of a feed message. Plain-text payloads
// (one telegram per line) are also accepted.
type batchPayload struct {
	Messages  []string `json:"messages"`
	BatchName string   `json:"batch_name,omitempty"`
}

// Subscriber consumes telegram batches from NATS.
type Subscriber struct {
	cfg      Config
	ingestor *ingest.Ingestor
	log      *zap.SugaredLogger

	conn *nats.Conn
	sub  *nats.Subscription
}

// NewSubscriber creates a feed subscriber. It does not connect yet.
func NewSubscriber(cfg Config, ing *ingest.Ingestor, log *zap.SugaredLogger) *Subscriber {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Subscriber{cfg: cfg, ingestor: ing, log: log}
}

// Start connects to NATS and subscribes to the configured subject.
func (s *Subscriber) Start(ctx context.Context) error {
	conn, err := nats.Connect(s.cfg.URL,
		nats.Name("telegram_parser-feed"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("nats connect %s: %w", s.cfg.URL, err)
	}
	s.conn = conn

	handler := func(msg *nats.Msg) {
		s.handle(ctx, msg)
	}

	if s.cfg.Queue != "" {
		s.sub, err = conn.QueueSubscribe(s.cfg.Subject, s.cfg.Queue, handler)
	} else {
		s.sub, err = conn.Subscribe(s.cfg.Subject, handler)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("nats subscribe %s: %w", s.cfg.Subject, err)
	}

	s.log.Infow("feed subscribed", "url", s.cfg.URL, "subject", s.cfg.Subject, "queue", s.cfg.Queue)
	return nil
}

// Close drains the subscription and closes the connection.
func (s *Subscriber) Close() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Drain(); err != nil {
		s.log.Warnw("nats drain failed", "error", err)
		s.conn.Close()
	}
	s.conn = nil
	s.sub = nil
}

func (s *Subscriber) handle(ctx context.Context, msg *nats.Msg) {
	lines, name := decodePayload(msg.Data)
	if len(lines) == 0 {
		s.log.Debugw("feed message carried no telegrams", "subject", msg.Subject)
		return
	}
	if name == "" {
		name = "feed_" + time.Now().Format("20060102_150405")
	}

	batchID := fmt.Sprintf("feed-%d", time.Now().UnixNano())
	res, err := s.ingestor.Run(ctx, batchID, name, lines)
	if err != nil {
		s.log.Errorw("feed batch failed", "batch_id", batchID, "error", err)
		return
	}
	s.log.Infow("feed batch processed",
		"batch_id", batchID,
		"messages", len(lines),
		"accepted", res.Stats.AcceptedCount,
		"saved", res.SavedCount,
	)
}

// decodePayload accepts either a JSON batch object or plain text with one
// telegram per line.
func decodePayload(data []byte) (lines []string, name string) {
	var p batchPayload
	if err := json.Unmarshal(data, &p); err == nil && len(p.Messages) > 0 {
		return p.Messages, p.BatchName
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, ""
}
