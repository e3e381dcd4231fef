// Package realtime owns the broadcast path: the MQTT connection lifecycle
// and the bridge that turns accepted mutations into retained messages.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/shubhamkulkarni01/emstrack/internal/observability"
)

// Config carries broker settings for the outbound connection.
type Config struct {
	BrokerHost     string
	BrokerPort     int
	Username       string
	Password       string
	ClientID       string
	QueueSize      int
	ConnectRetries int
	ConnectBackoff time.Duration
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.ClientID == "" {
		cfg.ClientID = "emstrack-" + uuid.NewString()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.ConnectRetries <= 0 {
		cfg.ConnectRetries = 10
	}
	if cfg.ConnectBackoff <= 0 {
		cfg.ConnectBackoff = time.Second
	}
	return cfg
}

type message struct {
	topic   string
	payload []byte
}

// Supervisor owns one outbound broker connection. All publishes flow
// through a single delivery goroutine, which serializes broadcasts: per-topic
// order matches mutation acceptance order. When the connection is down,
// publishes degrade to counted drops; the mutation path never blocks on the
// transport.
type Supervisor struct {
	send      func(topic string, payload []byte) error
	connected func() bool
	shutdown  func()

	queue   chan message
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Connect dials the broker with a bounded retry loop. Exhausting all
// attempts is fatal to the caller: the system must not run with a
// silently-dead broadcast path.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger, metrics *observability.Metrics) (*Supervisor, error) {
	cfg = cfg.withDefaults()

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, cfg.BrokerPort)).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("broker connection lost", slog.Any("error", err))
		})

	client := mqtt.NewClient(opts)

	err := dialWithRetry(ctx, cfg.ConnectRetries, cfg.ConnectBackoff, logger, func() error {
		token := client.Connect()
		token.Wait()
		return token.Error()
	})
	if err != nil {
		return nil, err
	}

	s := newSupervisor(cfg.QueueSize, logger, metrics,
		func(topic string, payload []byte) error {
			token := client.Publish(topic, 2, true, payload)
			token.Wait()
			return token.Error()
		},
		client.IsConnectionOpen,
		func() { client.Disconnect(250) },
	)
	s.start()
	logger.Info("connected to broker",
		slog.String("host", cfg.BrokerHost),
		slog.Int("port", cfg.BrokerPort),
		slog.String("client_id", cfg.ClientID))
	return s, nil
}

// dialWithRetry runs dial until it succeeds or retries are exhausted. The
// backoff sleeps only between attempts; the final failure returns at once.
func dialWithRetry(ctx context.Context, retries int, backoff time.Duration, logger *slog.Logger, dial func() error) error {
	for attempt := 1; ; attempt++ {
		err := dial()
		if err == nil {
			return nil
		}
		logger.Warn("broker connect failed",
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		if attempt >= retries {
			return fmt.Errorf("realtime: connect after %d attempts: %w", retries, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// newSupervisor wires the delivery machinery around injectable transport
// functions so the loop can be exercised without a broker.
func newSupervisor(
	queueSize int,
	logger *slog.Logger,
	metrics *observability.Metrics,
	send func(topic string, payload []byte) error,
	connected func() bool,
	shutdown func(),
) *Supervisor {
	return &Supervisor{
		send:      send,
		connected: connected,
		shutdown:  shutdown,
		queue:     make(chan message, queueSize),
		logger:    logger,
		metrics:   metrics,
	}
}

func (s *Supervisor) start() {
	s.wg.Add(1)
	go s.deliver()
}

func (s *Supervisor) deliver() {
	defer s.wg.Done()
	for msg := range s.queue {
		if s.connected != nil && !s.connected() {
			s.metrics.ObserveDrop()
			s.logger.Warn("transport down, dropping broadcast", slog.String("topic", msg.topic))
			continue
		}
		if err := s.send(msg.topic, msg.payload); err != nil {
			s.metrics.ObserveDrop()
			s.logger.Warn("broadcast failed",
				slog.String("topic", msg.topic),
				slog.Any("error", err))
		}
	}
}

// Publish enqueues a retained state broadcast. Fire-and-forget: the call
// returns once the message is handed to the delivery loop, or immediately
// when the queue is full or the supervisor is closed.
func (s *Supervisor) Publish(topic string, payload []byte) {
	s.enqueue(message{topic: topic, payload: payload})
}

// Remove enqueues an empty retained tombstone so late subscribers observe
// deletion instead of stale retained state.
func (s *Supervisor) Remove(topic string) {
	s.enqueue(message{topic: topic, payload: nil})
}

func (s *Supervisor) enqueue(msg message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.metrics.ObserveDrop()
		return
	}
	select {
	case s.queue <- msg:
		s.metrics.ObservePublish(topicClass(msg.topic))
	default:
		s.metrics.ObserveDrop()
		s.logger.Warn("publish queue full, dropping broadcast", slog.String("topic", msg.topic))
	}
}

// Close stops accepting publishes, drains the queue and disconnects.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	if s.shutdown != nil {
		s.shutdown()
	}
}
