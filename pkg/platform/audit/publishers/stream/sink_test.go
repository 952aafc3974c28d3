package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "skillchain/pkg/platform/audit"
	"skillchain/pkg/platform/circuit"
)

type fakeProducer struct {
	key   string
	value []byte
	err   error
}

func (p *fakeProducer) Publish(_ context.Context, key string, value []byte) error {
	p.key = key
	p.value = value
	return p.err
}

func TestSink_PublishesEventKeyedBySubject(t *testing.T) {
	producer := &fakeProducer{}
	sink := NewSink(producer)

	event := audit.Event{
		ID:        "evt-1",
		Action:    string(audit.EventCertificatesBatchIssued),
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		Caller:    "0x00000000000000000000000000000000000000c1",
		Subject:   "0x00000000000000000000000000000000000000b1",
		TokenIDs:  []uint64{4, 5},
	}
	require.NoError(t, sink.Append(context.Background(), event))

	assert.Equal(t, event.Subject, producer.key)
	var decoded audit.Event
	require.NoError(t, json.Unmarshal(producer.value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestSink_PropagatesProducerError(t *testing.T) {
	sink := NewSink(&fakeProducer{err: errors.New("not leader for partition")})
	err := sink.Append(context.Background(), audit.Event{Subject: "0x01"})
	assert.ErrorContains(t, err, "not leader")
}

func TestSink_CircuitOpensAndRecovers(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	sink := NewSink(producer,
		WithCooldownBreaker(2, time.Minute, circuit.WithClock(func() time.Time { return now })),
		WithMetrics(m),
	)
	ctx := context.Background()

	assert.Error(t, sink.Append(ctx, audit.Event{Subject: "0x01"}))
	assert.Error(t, sink.Append(ctx, audit.Event{Subject: "0x01"}))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BreakerState))

	producer.key = ""
	assert.ErrorIs(t, sink.Append(ctx, audit.Event{Subject: "0x02"}), ErrCircuitOpen)
	assert.Empty(t, producer.key, "no publish while open")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Dropped))

	now = now.Add(time.Minute)
	producer.err = nil
	require.NoError(t, sink.Append(ctx, audit.Event{Subject: "0x03"}))
	assert.Equal(t, "0x03", producer.key)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.BreakerState))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Failures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Published))
}

func TestSink_HalfOpenFailureReopens(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	sink := NewSink(producer, WithCooldownBreaker(3, time.Second, circuit.WithClock(func() time.Time { return now })))
	ctx := context.Background()

	for range 3 {
		_ = sink.Append(ctx, audit.Event{})
	}
	require.True(t, sink.breaker.IsOpen())

	now = now.Add(2 * time.Second)
	assert.EqualError(t, sink.Append(ctx, audit.Event{}), "broker down")
	assert.True(t, sink.breaker.IsOpen())
	assert.ErrorIs(t, sink.Append(ctx, audit.Event{}), ErrCircuitOpen, "the failed trial restarts the cooldown")
}
