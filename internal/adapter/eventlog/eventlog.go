// Package eventlog appends an ordered, replayable record of every committed
// command to Kafka, keyed by session id so a single partition preserves
// per-session ordering. Distinct from eventbus: this is a durable history
// for post-hoc dispute resolution between host and participants, not a live
// push fan-out.
package eventlog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

const topic = "nightwatch.commands"

// Record is one committed command against a session.
type Record struct {
	SessionID     string       `json:"sessionId"`
	ParticipantID string       `json:"participantId"`
	Action        string       `json:"action"`
	ResultPhase   entity.Phase `json:"resultPhase"`
	At            time.Time    `json:"at"`
}

type EventLog struct {
	writer *kafka.Writer
}

func New(brokers string) *EventLog {
	return &EventLog{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
		},
	}
}

// Append writes one command record, partitioned by session id so a single
// session's history always replays in commit order.
func (l *EventLog) Append(ctx context.Context, rec Record) error {
	rec.At = time.Now()
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.SessionID),
		Value: body,
	})
}

func (l *EventLog) Close() error {
	return l.writer.Close()
}
