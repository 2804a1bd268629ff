// Package events publishes account lifecycle events. Consumers (search
// indexers, moderation tooling) are external; publishing is fire-and-forget
// from the caller's point of view.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

const (
	TopicAccountCreated = "account.created"
	TopicAccountDeleted = "account.deleted"
)

type AccountEvent struct {
	AccountID  string    `json:"account_id"`
	DisplayID  string    `json:"display_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Producer interface {
	AccountCreated(ev AccountEvent) error
	AccountDeleted(ev AccountEvent) error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
}

func NewKafkaProducer(brokers []string) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return &KafkaProducer{producer: producer}, nil
}

func (p *KafkaProducer) AccountCreated(ev AccountEvent) error {
	return p.publish(TopicAccountCreated, ev)
}

func (p *KafkaProducer) AccountDeleted(ev AccountEvent) error {
	return p.publish(TopicAccountDeleted, ev)
}

func (p *KafkaProducer) publish(topic string, ev AccountEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(ev.AccountID), // partition by account
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

// NopProducer drops events; used when no broker is configured.
type NopProducer struct{}

func (NopProducer) AccountCreated(AccountEvent) error { return nil }
func (NopProducer) AccountDeleted(AccountEvent) error { return nil }
