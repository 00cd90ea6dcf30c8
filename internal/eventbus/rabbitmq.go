package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"handmade/internal/config"
	"handmade/internal/domain"
	applog "handmade/internal/log"
)

// For publisher confirms
const (
	publishTimeout = 5 * time.Second
	confirmBuffer  = 16
)

var ErrNotReady = errors.New("event publisher not ready")

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Envelope is the JSON body of every published message.
type Envelope struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Payload    domain.Event `json:"payload"`
}

// Publisher sends domain events to a topic exchange, routing key = event type,
// and waits for the broker to confirm each message.
type Publisher struct {
	cfg config.Config

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	confirms chan amqp.Confirmation
	seq      uint64 // delivery tag of the last publish on ch
	ready    bool

	done chan struct{}
	once sync.Once
}

// Dial connects with exponential backoff (bounded by MaxReconnectWait) and keeps
// reconnecting in the background whenever the connection drops.
func Dial(ctx context.Context, cfg config.Config) (*Publisher, error) {
	p := &Publisher{cfg: cfg, done: make(chan struct{})}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.ReconnectDelay
	b.MaxElapsedTime = p.cfg.MaxReconnectWait

	var conn *amqp.Connection
	op := func() error {
		var err error
		conn, err = amqp.Dial(p.cfg.RabbitMQURL)
		if err != nil {
			applog.Logger().Warn().Err(err).Msg("rabbitmq dial failed, retrying")
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "open channel")
	}
	if err := p.setup(ch); err != nil {
		_ = conn.Close()
		return err
	}

	closed := make(chan *amqp.Error, 1)
	conn.NotifyClose(closed)
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	go p.watch(closed)

	applog.Logger().Info().Str("exchange", p.cfg.EventsExchange).Msg("rabbitmq publisher ready")
	return nil
}

// setup puts ch in confirm mode and declares the events exchange.
func (p *Publisher) setup(ch channel) error {
	if err := ch.Confirm(false); err != nil {
		return errors.Wrap(err, "confirm mode")
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))
	if err := ch.ExchangeDeclare(
		p.cfg.EventsExchange,     // name
		p.cfg.EventsExchangeType, // type
		true,                     // durable
		false,                    // auto-deleted
		false,                    // internal
		false,                    // no-wait
		nil,                      // arguments
	); err != nil {
		return errors.Wrapf(err, "declare exchange %s", p.cfg.EventsExchange)
	}
	p.mu.Lock()
	p.ch = ch
	p.confirms = confirms
	p.seq = 0
	p.ready = true
	p.mu.Unlock()
	return nil
}

func (p *Publisher) watch(closed chan *amqp.Error) {
	var lost *amqp.Error
	select {
	case <-p.done:
		return
	case e, ok := <-closed:
		if !ok {
			return
		}
		lost = e
	}
	applog.Logger().Error().Str("reason", lost.Reason).Int("code", lost.Code).Msg("rabbitmq connection lost, reconnecting")
	p.mu.Lock()
	p.ready = false
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	for ctx.Err() == nil {
		err := p.connect(ctx)
		if err == nil {
			return
		}
		applog.Logger().Error().Err(err).Msg("rabbitmq reconnect failed")
		select {
		case <-ctx.Done():
		case <-time.After(p.cfg.ReconnectDelay):
		}
	}
}

// Dispatch publishes e and waits for the confirm.
func (p *Publisher) Dispatch(e domain.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return p.Publish(ctx, e)
}

func (p *Publisher) Publish(ctx context.Context, e domain.Event) error {
	body, err := json.Marshal(Envelope{Type: e.Type(), OccurredAt: time.Now().UTC(), Payload: e})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	// One publish in flight at a time so each confirm matches its message.
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready || p.ch == nil {
		return ErrNotReady
	}
	if err := p.ch.Publish(
		p.cfg.EventsExchange, // exchange
		e.Type(),             // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         e.Type(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		return errors.Wrap(err, "publish")
	}

	p.seq++
	tag := p.seq

	// Confirms for messages whose wait already timed out arrive late; skip them.
	for {
		select {
		case confirm, ok := <-p.confirms:
			if !ok {
				p.ready = false
				return ErrNotReady
			}
			if confirm.DeliveryTag < tag {
				applog.Logger().Debug().Uint64("tag", confirm.DeliveryTag).Msg("dropping stale confirm")
				continue
			}
			if !confirm.Ack {
				return errors.Errorf("broker nacked %s (tag %d)", e.Type(), confirm.DeliveryTag)
			}
			applog.Logger().Debug().Str("event", e.Type()).Uint64("tag", confirm.DeliveryTag).Msg("event published")
			return nil
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "publish confirmation")
		}
	}
}

// Close stops reconnecting and closes the channel and connection.
func (p *Publisher) Close() error {
	p.once.Do(func() { close(p.done) })
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = false
	var first error
	if p.ch != nil {
		first = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	p.conn = nil
	return first
}
