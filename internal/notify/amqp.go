package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"eventticketing/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	notificationRoutingKey = "event.notification"
	publishTimeout         = 5 * time.Second
)

// BrokerConfig locates the RabbitMQ exchange and queue that carry notifications.
type BrokerConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Broker owns the RabbitMQ connection used when notifications travel through a queue.
// Publishing and consuming use separate channels.
type Broker struct {
	conn  *amqp.Connection
	pubCh *amqp.Channel
	subCh *amqp.Channel
	cfg   BrokerConfig
}

// DialBroker connects to RabbitMQ and declares a durable topic exchange with a durable queue
// bound to the notification routing key.
func DialBroker(cfg BrokerConfig) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	b := &Broker{conn: conn, cfg: cfg}
	if b.pubCh, err = conn.Channel(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	if b.subCh, err = conn.Channel(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open consume channel: %w", err)
	}
	if err := b.pubCh.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}
	if _, err := b.subCh.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", cfg.Queue, err)
	}
	if err := b.subCh.QueueBind(cfg.Queue, notificationRoutingKey, cfg.Exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue %q: %w", cfg.Queue, err)
	}
	return b, nil
}

// Publisher returns a Notifier that publishes to the broker's exchange.
func (b *Broker) Publisher(logger *slog.Logger) *Publisher {
	return newPublisher(b.pubCh, b.cfg.Exchange, logger)
}

// Deliveries starts consuming the notification queue with manual acknowledgement.
func (b *Broker) Deliveries() (<-chan amqp.Delivery, error) {
	return b.subCh.Consume(b.cfg.Queue, "", false, false, false, false, nil)
}

// Close closes the channels and the connection.
func (b *Broker) Close() error {
	b.subCh.Close()
	b.pubCh.Close()
	return b.conn.Close()
}

// notificationMessage is the queue payload for a domain.EventNotification.
type notificationMessage struct {
	Kind         domain.NotificationKind `json:"kind"`
	EventID      string                  `json:"event_id"`
	EventTitle   string                  `json:"event_title"`
	RecipientIDs []string                `json:"recipient_ids"`
}

// amqpPublisher is the subset of *amqp.Channel the Publisher uses.
type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher implements domain.Notifier by handing notifications to RabbitMQ. A failed publish is
// logged and the notification is dropped.
type Publisher struct {
	ch       amqpPublisher
	exchange string
	logger   *slog.Logger
	timeout  time.Duration
}

var _ domain.Notifier = (*Publisher)(nil)

func newPublisher(ch amqpPublisher, exchange string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{ch: ch, exchange: exchange, logger: logger, timeout: publishTimeout}
}

// Notify publishes n as a persistent JSON message.
func (p *Publisher) Notify(n domain.EventNotification) {
	if len(n.RecipientIDs) == 0 {
		return
	}
	body, err := json.Marshal(notificationMessage{
		Kind:         n.Kind,
		EventID:      n.EventID,
		EventTitle:   n.EventTitle,
		RecipientIDs: n.RecipientIDs,
	})
	if err != nil {
		p.logger.Error("notification encode failed", "kind", n.Kind, "event_id", n.EventID, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.exchange, notificationRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.logger.Error("notification publish failed", "kind", n.Kind, "event_id", n.EventID, "err", err)
		return
	}
	p.logger.Debug("notification published", "kind", n.Kind, "event_id", n.EventID, "recipients", len(n.RecipientIDs))
}

// Consumer hands queued notifications to a local Notifier, usually a Dispatcher.
type Consumer struct {
	target domain.Notifier
	logger *slog.Logger
}

// NewConsumer returns a Consumer that forwards to target.
func NewConsumer(target domain.Notifier, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{target: target, logger: logger}
}

// Run forwards deliveries until the channel closes or ctx is done. Unreadable messages are
// rejected without requeue.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("notification queue closed")
				return
			}
			c.handle(d)
		}
	}
}

func (c *Consumer) handle(d amqp.Delivery) {
	var msg notificationMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || !knownKind(msg.Kind) {
		c.logger.Error("malformed notification message", "delivery_tag", d.DeliveryTag, "err", err)
		if err := d.Reject(false); err != nil {
			c.logger.Error("notification reject failed", "delivery_tag", d.DeliveryTag, "err", err)
		}
		return
	}

	c.target.Notify(domain.EventNotification{
		Kind:         msg.Kind,
		EventID:      msg.EventID,
		EventTitle:   msg.EventTitle,
		RecipientIDs: msg.RecipientIDs,
	})
	if err := d.Ack(false); err != nil {
		c.logger.Error("notification ack failed", "delivery_tag", d.DeliveryTag, "err", err)
	}
}

func knownKind(k domain.NotificationKind) bool {
	return k == domain.NotificationEventUpdated || k == domain.NotificationEventCancelled
}
