// v1
// internal/ledger/ledger.go

// Package ledger publishes analysis and simulation outcomes onto the campus
// event ledger topic. Publishing is best-effort: a broker outage is logged
// and never fails the analysis that produced the event.
package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/sim"
)

const publishTimeout = 5 * time.Second

// Event is the wire envelope written to the ledger topic.
type Event struct {
	EventID   string    `json:"event_id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes ledger events to Kafka. A nil Publisher is a valid
// disabled publisher; all methods are no-ops on it.
type Publisher struct {
	writer messageWriter
	log    *slog.Logger
}

// NewPublisher wires a Kafka writer for the given brokers and topic.
// With no brokers configured it returns nil, which disables publishing.
func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		log.Info("ledger publishing disabled", "reason", "no brokers or topic configured")
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
	}
	log.Info("ledger publisher wired", "topic", topic, "brokers", brokers)
	return &Publisher{writer: w, log: log.With("component", "ledger")}
}

// PublishAnalysis records one completed campus analysis cycle.
func (p *Publisher) PublishAnalysis(ctx context.Context, result campus.CampusResult) {
	if p == nil {
		return
	}
	p.publish(ctx, "analysis", result.CampusName, result)
}

// PublishSimulation records one completed what-if simulation.
func (p *Publisher) PublishSimulation(ctx context.Context, result sim.Result) {
	if p == nil {
		return
	}
	p.publish(ctx, "simulation", result.Scenario.Name, result)
}

func (p *Publisher) publish(ctx context.Context, kind, key string, payload any) {
	event := Event{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.log.Error("ledger event marshal failed", "kind", kind, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value})
	if err != nil {
		p.log.Warn("ledger publish failed", "kind", kind, "eventId", event.EventID, "error", err)
		return
	}
	p.log.Debug("ledger event published", "kind", kind, "eventId", event.EventID)
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
