package outbox

import (
	"context"
	"fmt"
	"log"
	"time"

	"event-registration-platform/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes outbox messages to a durable queue
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the queue
func NewRabbitMQPublisher(url string, queueName string) (*RabbitMQPublisher, error) {
	var conn *amqp.Connection
	var err error

	// Retry connection because RabbitMQ takes time to start in Docker
	for i := 0; i < 10; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Printf("[RabbitMQ] Failed to connect, retrying in 2s... (%d/10)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	return &RabbitMQPublisher{conn: conn, channel: ch, queue: queueName}, nil
}

// Publish implements Publisher
func (p *RabbitMQPublisher) Publish(ctx context.Context, msg *models.OutboxMessage) error {
	err := p.channel.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		buildPublishing(msg))
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Printf("[RabbitMQ] Published %s %s to queue %s", msg.EventType, msg.ID, p.queue)
	return nil
}

// Close closes the channel and connection
func (p *RabbitMQPublisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

func buildPublishing(msg *models.OutboxMessage) amqp.Publishing {
	return amqp.Publishing{
		MessageId:    msg.ID,
		Type:         msg.EventType,
		ContentType:  "application/json",
		Timestamp:    msg.CreatedAt,
		Body:         msg.Payload,
		DeliveryMode: amqp.Persistent,
		Headers: amqp.Table{
			"aggregate_id": msg.AggregateID,
		},
	}
}
