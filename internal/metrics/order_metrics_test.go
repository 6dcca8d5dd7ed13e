package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOrderMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.RecordPlaced()
	m.RecordPlaced()
	m.RecordFailed()
	m.RecordInsufficientStock()
	m.RecordCacheInvalidationFailure()
	m.RecordEventPublished()
	m.RecordEventPublishFailure()
	m.RecordPlacementDuration(150 * time.Millisecond)

	if got := testutil.ToFloat64(m.placed); got != 2 {
		t.Fatalf("placed = %v, ожидалось 2", got)
	}
	if got := testutil.ToFloat64(m.failed); got != 1 {
		t.Fatalf("failed = %v, ожидалось 1", got)
	}
	if got := testutil.ToFloat64(m.insufficientStock); got != 1 {
		t.Fatalf("insufficientStock = %v, ожидалось 1", got)
	}
	if got := testutil.ToFloat64(m.cacheInvalidationFailures); got != 1 {
		t.Fatalf("cacheInvalidationFailures = %v, ожидалось 1", got)
	}
	if got := testutil.ToFloat64(m.eventsPublished); got != 1 {
		t.Fatalf("eventsPublished = %v, ожидалось 1", got)
	}
	if got := testutil.ToFloat64(m.eventPublishFailures); got != 1 {
		t.Fatalf("eventPublishFailures = %v, ожидалось 1", got)
	}
}

func TestOrderMetrics_ReregistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(registry)
	first.RecordPlaced()

	// Повторная регистрация в том же registry не должна паниковать
	// и обязана вернуть уже существующие коллекторы.
	second := newOrderMetricsWithRegisterer(registry)
	second.RecordPlaced()

	if got := testutil.ToFloat64(first.placed); got != 2 {
		t.Fatalf("общий счётчик = %v, ожидалось 2", got)
	}
}
