package speech

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBreakerCooldownWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(time.Minute, nil, testLogger())
	b.now = func() time.Time { return now }

	if !b.Allow() {
		t.Fatal("fresh breaker should allow")
	}

	b.Trip()
	if b.Allow() {
		t.Fatal("tripped breaker should suppress")
	}

	now = now.Add(59 * time.Second)
	if b.Allow() {
		t.Fatal("breaker opened before cooldown elapsed")
	}

	now = now.Add(time.Second)
	if !b.Allow() {
		t.Fatal("breaker should allow after cooldown")
	}
}

func TestBreakerTripRecordsCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })

	metrics, err := NewMetrics()
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	b := NewBreaker(time.Minute, metrics, testLogger())
	b.Trip()
	b.Trip()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var trips int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "speech.breaker.trips" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				trips += dp.Value
			}
		}
	}
	if trips != 2 {
		t.Fatalf("recorded %d trips, want 2", trips)
	}
}

func TestBreakerRetripExtendsWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(time.Minute, nil, testLogger())
	b.now = func() time.Time { return now }

	b.Trip()
	now = now.Add(30 * time.Second)
	b.Trip()
	now = now.Add(45 * time.Second)
	if b.Allow() {
		t.Fatal("second trip should restart the cooldown")
	}
	now = now.Add(15 * time.Second)
	if !b.Allow() {
		t.Fatal("breaker should open a full cooldown after the last trip")
	}
}
