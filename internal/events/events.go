// Package events publishes trip-planning domain events to Kafka, adapted
// from the draymaster shared kafka package's Event/Producer pattern.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/draymaster/tripplanner/internal/logger"
)

// Topics this service publishes to.
const (
	TopicTripPlanned         = "tripplanner.trip.planned"
	TopicHOSRestartTriggered = "tripplanner.hos.restart_triggered"
)

// eventSource identifies this service as the origin of every event it
// publishes.
const eventSource = "tripplanner"

// Event is a domain event envelope.
type Event struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Source        string            `json:"source"`
	Time          time.Time         `json:"time"`
	Data          interface{}       `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

// NewEvent creates a trip-planner event carrying data.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		Source: eventSource,
		Time:   time.Now().UTC(),
		Data:   data,
	}
}

// WithCorrelationID tags the event with a correlation id, typically the
// trip-planning request id.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// TripPlannedData is the payload for TopicTripPlanned.
type TripPlannedData struct {
	DriverID      string  `json:"driver_id,omitempty"`
	DistanceMiles float64 `json:"distance_miles"`
	DurationHours float64 `json:"duration_hours"`
	DailyLogCount int     `json:"daily_log_count"`
}

// HOSRestartTriggeredData is the payload for TopicHOSRestartTriggered.
type HOSRestartTriggeredData struct {
	DriverID        string  `json:"driver_id,omitempty"`
	WeeklyUsedHours float64 `json:"weekly_used_hours"`
}

// Producer publishes events to Kafka.
type Producer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewProducer creates a Kafka producer over the given brokers.
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	if log == nil {
		log = logger.Default()
	}
	return &Producer{writer: writer, log: log}
}

// Publish publishes an event to a topic.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.ID),
		Value: data,
		Time:  event.Time,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}
	if event.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "correlation_id", Value: []byte(event.CorrelationID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("failed to publish event", "topic", topic, "event_type", event.Type, "error", err)
		return fmt.Errorf("publish event: %w", err)
	}

	p.log.Debugw("event published", "topic", topic, "event_id", event.ID, "event_type", event.Type)
	return nil
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
