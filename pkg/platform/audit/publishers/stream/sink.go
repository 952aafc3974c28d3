// Package stream forwards audit events to a message broker as JSON records
// keyed by subject, so consumers see each address's history in order.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	audit "skillchain/pkg/platform/audit"
	"skillchain/pkg/platform/circuit"
)

const defaultCooldown = time.Minute

// ErrCircuitOpen is returned while the broker is considered unhealthy.
var ErrCircuitOpen = errors.New("stream sink circuit open")

// Producer is the broker client the sink writes through.
type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Sink struct {
	producer Producer
	breaker  *circuit.Breaker
	metrics  *Metrics
}

type Option func(*Sink)

// WithCooldownBreaker drops events without contacting the broker for
// cooldown after threshold consecutive publish failures. One successful
// trial publish closes the breaker again.
func WithCooldownBreaker(threshold int, cooldown time.Duration, opts ...circuit.Option) Option {
	return func(s *Sink) {
		if cooldown <= 0 {
			cooldown = defaultCooldown
		}
		opts = append([]circuit.Option{
			circuit.WithFailureThreshold(threshold),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(cooldown),
		}, opts...)
		s.breaker = circuit.New("audit-stream", opts...)
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Sink) {
		s.metrics = m
	}
}

func NewSink(producer Producer, opts ...Option) *Sink {
	s := &Sink{producer: producer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if s.breaker != nil && !s.breaker.Allow() {
		if s.metrics != nil {
			s.metrics.Dropped.Inc()
		}
		return ErrCircuitOpen
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	if err := s.producer.Publish(ctx, event.Subject, payload); err != nil {
		s.recordFailure()
		return err
	}
	s.recordSuccess()
	return nil
}

func (s *Sink) recordFailure() {
	if s.metrics != nil {
		s.metrics.Failures.Inc()
	}
	if s.breaker != nil {
		s.breaker.RecordFailure()
		if s.metrics != nil {
			s.metrics.SetBreakerState(s.breaker.IsOpen())
		}
	}
}

func (s *Sink) recordSuccess() {
	if s.metrics != nil {
		s.metrics.Published.Inc()
	}
	if s.breaker != nil {
		s.breaker.RecordSuccess()
		if s.metrics != nil {
			s.metrics.SetBreakerState(false)
		}
	}
}
