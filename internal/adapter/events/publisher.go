// internal/adapter/events/publisher.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trendcast/internal/domain/trend"
)

// Conn is the subset of *nats.Conn the publisher uses
type Conn interface {
	Publish(subj string, data []byte) error
}

// RunCompleted is published after every successful prediction run
type RunCompleted struct {
	RunID       string                     `json:"run_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Counts      map[string]int             `json:"counts"`
	Top         *trend.CombinedTrendResult `json:"top,omitempty"`
}

// HighTrend is published for every combined trend categorized HIGH
type HighTrend struct {
	RunID string                    `json:"run_id"`
	Rank  int                       `json:"rank"`
	Trend trend.CombinedTrendResult `json:"trend"`
}

// Publisher announces prediction runs on the event bus
type Publisher struct {
	conn  Conn
	topic string
}

// NewPublisher creates a publisher writing under topic
func NewPublisher(conn Conn, topic string) *Publisher {
	if topic == "" {
		topic = "predictions"
	}
	return &Publisher{
		conn:  conn,
		topic: topic,
	}
}

// CompletedSubject returns the subject run completions are published on
func (p *Publisher) CompletedSubject() string {
	return CompletedSubject(p.topic)
}

// CompletedSubject returns the run completion subject for topic
func CompletedSubject(topic string) string {
	return topic + ".completed"
}

// PublishRun publishes the completion event and one event per HIGH trend
func (p *Publisher) PublishRun(ctx context.Context, r *trend.Result) error {
	counts := map[string]int{"combined": len(r.Combined)}
	for _, pl := range trend.Platforms {
		counts[string(pl)] = len(r.ForPlatform(pl))
	}

	evt := RunCompleted{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Counts:      counts,
	}
	if len(r.Combined) > 0 {
		top := r.Combined[0]
		evt.Top = &top
	}

	if err := p.publish(p.CompletedSubject(), evt); err != nil {
		return err
	}

	for i, c := range r.Combined {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.PredictedTrend != trend.CategoryHigh {
			continue
		}
		if err := p.publish(p.topic+".high", HighTrend{RunID: r.RunID, Rank: i + 1, Trend: c}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshaling %s event: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("error publishing %s: %w", subject, err)
	}
	return nil
}
