package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

const (
	TopicEmail = "notification.email"
	TopicSMS   = "notification.sms"
)

type message struct {
	RequestID string `json:"request_id"`
	To        string `json:"to"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
}

// KafkaDispatcher hands messages to the notification workers via Kafka.
type KafkaDispatcher struct {
	producer sarama.SyncProducer
}

func NewKafkaDispatcher(brokers []string) (*KafkaDispatcher, error) {
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
	return &KafkaDispatcher{producer: producer}, nil
}

func (d *KafkaDispatcher) SendEmail(_ context.Context, to, subject, body string) error {
	return d.publish(TopicEmail, message{
		RequestID: uuid.New().String(),
		To:        to,
		Subject:   subject,
		Body:      body,
	})
}

func (d *KafkaDispatcher) SendSMS(_ context.Context, to, body string) error {
	return d.publish(TopicSMS, message{
		RequestID: uuid.New().String(),
		To:        to,
		Body:      body,
	})
}

func (d *KafkaDispatcher) publish(topic string, msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.RequestID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := d.producer.SendMessage(kafkaMsg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.producer.Close()
}
