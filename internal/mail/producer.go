// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
Package mail publishes outbound notification messages to the mail queue.

Rendering and delivery happen in a separate consumer service; this package
only serializes a template identifier, recipient, and template variables
onto the Kafka topic. A nil Enqueue return means the broker accepted the
message, not that the mail was delivered.
*/
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// Message is the wire format consumed by the mail delivery service.
type Message struct {
	Template string            `json:"template"`
	Receiver string            `json:"receiver"`
	Locals   map[string]string `json:"locals"`
}

// Producer implements the outbound-notification contract over Kafka.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed mail producer.
//
// Username may be empty, in which case the connection is unauthenticated
// (local development brokers).
func NewProducer(broker, topic, username, password string, logger *slog.Logger) *Producer {

	transport := &kafka.Transport{
		DialTimeout: 10 * time.Second,
	}
	if username != "" {
		transport.SASL = plain.Mechanism{
			Username: username,
			Password: password,
		}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	return &Producer{writer: writer, logger: logger}
}

/*
Enqueue serializes and publishes one templated message.

Description: The recipient address keys the message so retries for the same
receiver land on the same partition, preserving per-recipient ordering.

Parameters:
  - context: context.Context
  - template: string
  - receiver: string
  - locals: map[string]string

Returns:
  - error: Serialization or broker publish failures
*/
func (producer *Producer) Enqueue(context context.Context, template, receiver string, locals map[string]string) error {

	payload, err := json.Marshal(Message{
		Template: template,
		Receiver: receiver,
		Locals:   locals,
	})
	if err != nil {
		return fmt.Errorf("mail_producer_marshal_failed: %w", err)
	}

	err = producer.writer.WriteMessages(context, kafka.Message{
		Key:   []byte(receiver),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("mail_producer_publish_failed: %w", err)
	}

	producer.logger.DebugContext(context, "mail_enqueued",
		slog.String("template", template),
	)

	return nil
}

// Close flushes pending messages and releases the writer's resources.
func (producer *Producer) Close() error {
	return producer.writer.Close()
}
