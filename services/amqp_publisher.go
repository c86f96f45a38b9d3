package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"football-trends/logger"
)

// ErrPublisherUnavailable is returned while the broker is down and the next
// redial is not due yet.
var ErrPublisherUnavailable = errors.New("amqp publisher is not connected")

// ReconnectConfig bounds how often a lost broker is redialled.
type ReconnectConfig struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	DialTimeout   time.Duration
}

func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialDelay:  1 * time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
		DialTimeout:   5 * time.Second,
	}
}

// AMQPPublisher pushes predictions to a topic exchange so other services can
// react to them. Routing keys look like prediction.fixture or prediction.compare.
type AMQPPublisher struct {
	url       string
	exchange  string
	reconnect ReconnectConfig

	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	ready    bool
	delay    time.Duration
	nextDial time.Time

	now  func() time.Time
	dial func(url string, cfg amqp.Config) (*amqp.Connection, error)
}

func NewAMQPPublisher(url, exchange string) *AMQPPublisher {
	rc := DefaultReconnectConfig()
	return &AMQPPublisher{
		url:       url,
		exchange:  exchange,
		reconnect: rc,
		delay:     rc.InitialDelay,
		now:       time.Now,
		dial:      amqp.DialConfig,
	}
}

// Connect dials the broker and declares the exchange.
func (p *AMQPPublisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked()
}

func (p *AMQPPublisher) connectLocked() error {
	p.dropLocked()
	conn, err := p.dial(p.url, amqp.Config{
		Heartbeat: 30 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.reconnect.DialTimeout),
	})
	if err != nil {
		p.backoffLocked()
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		p.backoffLocked()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		p.backoffLocked()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	p.conn = conn
	p.channel = channel
	p.ready = true
	p.delay = p.reconnect.InitialDelay
	// a channel close also fires when its connection goes away
	go p.watch(channel, channel.NotifyClose(make(chan *amqp.Error, 1)))

	logger.Printf("AMQP publisher ready on exchange %s", p.exchange)
	return nil
}

// backoffLocked schedules the next dial attempt and grows the delay.
func (p *AMQPPublisher) backoffLocked() {
	p.ready = false
	p.nextDial = p.now().Add(p.delay)
	next := time.Duration(float64(p.delay) * p.reconnect.BackoffFactor)
	if next > p.reconnect.MaxDelay {
		next = p.reconnect.MaxDelay
	}
	p.delay = next
}

// watch marks the publisher as disconnected once ch closes. A channel that
// was already replaced by a redial is ignored.
func (p *AMQPPublisher) watch(ch *amqp.Channel, closed <-chan *amqp.Error) {
	amqpErr, ok := <-closed
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != ch {
		return
	}
	p.ready = false
	if p.conn != nil {
		p.conn.Close()
	}
	p.channel, p.conn = nil, nil
	if ok && amqpErr != nil {
		logger.Warnf("AMQP publisher channel closed: %v", amqpErr)
	}
}

// Publish implements PredictionSink. A lost connection is redialled at most
// once per backoff window; in between Publish fails fast.
func (p *AMQPPublisher) Publish(ctx context.Context, ev PredictionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready {
		if p.now().Before(p.nextDial) {
			return ErrPublisherUnavailable
		}
		if err := p.connectLocked(); err != nil {
			return err
		}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.CreatedAt,
		Body:         body,
	}
	if err := p.channel.Publish(p.exchange, RoutingKey(ev), false, false, msg); err != nil {
		p.backoffLocked()
		return fmt.Errorf("failed to publish prediction: %w", err)
	}
	return nil
}

// Close shuts the channel and connection.
func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropLocked()
}

func (p *AMQPPublisher) dropLocked() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.channel, p.conn = nil, nil
	p.ready = false
}

// RoutingKey is the topic a prediction is published under.
func RoutingKey(ev PredictionEvent) string {
	kind := ev.Kind
	if kind == "" {
		kind = "unknown"
	}
	return "prediction." + kind
}
