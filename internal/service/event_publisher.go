package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-booking-engine/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// EventPublisher announces committed booking status changes. It is called
// only after the transaction holding the changes has committed.
type EventPublisher interface {
	PublishStatusChanges(ctx context.Context, bookings []*entity.Booking, changes []entity.StatusChange) error
	Close() error
}

// BookingEvent is the message value written for each status change.
type BookingEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	BookingID  string    `json:"booking_id"`
	ProviderID string    `json:"provider_id,omitempty"`
	StaffID    string    `json:"staff_id,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	SlotStart  time.Time `json:"slot_start"`
	SlotEnd    time.Time `json:"slot_end"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const kafkaWriteTimeout = 5 * time.Second

type kafkaEventPublisher struct {
	writer *kafka.Writer
	log    *logrus.Logger
}

// NewEventPublisher returns a Kafka publisher, or a no-op one when no brokers
// are configured.
func NewEventPublisher(log *logrus.Logger, brokers, topic string) EventPublisher {
	addrs := SplitBrokers(brokers)
	if len(addrs) == 0 || topic == "" {
		log.Warn("Booking event publisher disabled (no kafka brokers configured)")
		return noopEventPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	log.Infof("Booking events go to kafka topic %s on %s", topic, strings.Join(addrs, ","))
	return &kafkaEventPublisher{writer: writer, log: log}
}

func (p *kafkaEventPublisher) PublishStatusChanges(ctx context.Context, bookings []*entity.Booking, changes []entity.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs, err := BuildEventMessages(bookings, changes)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Warnf("Failed to publish %d booking events: %+v", len(msgs), err)
		return fmt.Errorf("publish booking events: %w", err)
	}
	return nil
}

func (p *kafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// BuildEventMessages turns changes into Kafka messages keyed by provider, so
// events of one provider stay ordered on one partition.
func BuildEventMessages(bookings []*entity.Booking, changes []entity.StatusChange) ([]kafka.Message, error) {
	byID := make(map[uuid.UUID]*entity.Booking, len(bookings))
	for _, b := range bookings {
		byID[b.ID()] = b
	}

	msgs := make([]kafka.Message, 0, len(changes))
	for _, change := range changes {
		event := BookingEvent{
			EventID:    uuid.NewString(),
			EventType:  entity.AuditActionFor(change),
			BookingID:  change.BookingID.String(),
			From:       string(change.From),
			To:         string(change.To),
			ActorID:    change.Actor.ID,
			ActorRole:  string(change.Actor.Role),
			Reason:     change.Reason,
			OccurredAt: change.At,
		}
		key := change.BookingID.String()
		if b, ok := byID[change.BookingID]; ok {
			event.ProviderID = b.ProviderID().String()
			event.CustomerID = b.CustomerID().String()
			if staff := b.StaffID(); staff != nil {
				event.StaffID = staff.String()
			}
			event.SlotStart = b.Slot().Start()
			event.SlotEnd = b.Slot().End()
			key = event.ProviderID
		}

		value, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("marshal booking event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(key),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(event.EventID)},
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		})
	}
	return msgs, nil
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type noopEventPublisher struct{}

func (noopEventPublisher) PublishStatusChanges(context.Context, []*entity.Booking, []entity.StatusChange) error {
	return nil
}

func (noopEventPublisher) Close() error { return nil }
