package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики размещения заказов.
type OrderMetrics struct {
	// Счётчики результатов размещения
	placed            prometheus.Counter
	failed            prometheus.Counter
	insufficientStock prometheus.Counter

	// Гистограмма времени размещения
	placementDuration prometheus.Histogram

	// Счётчики best-effort операций после коммита
	cacheInvalidationFailures prometheus.Counter
	eventsPublished           prometheus.Counter
	eventPublishFailures      prometheus.Counter
}

// NewOrderMetrics создаёт и регистрирует метрики размещения заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		placed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		failed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_placement_failed_total",
			Help: "Total number of order placements that failed and rolled back",
		}),
		insufficientStock: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_insufficient_stock_total",
			Help: "Total number of placements rejected due to insufficient stock",
		}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_placement_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		cacheInvalidationFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_cache_invalidation_failures_total",
			Help: "Total number of failed product cache invalidations",
		}),
		eventsPublished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_events_published_total",
			Help: "Total number of order events published",
		}),
		eventPublishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_event_publish_failures_total",
			Help: "Total number of failed order event publications",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPlaced увеличивает счётчик успешных размещений.
func (m *OrderMetrics) RecordPlaced() {
	m.placed.Inc()
}

// RecordFailed увеличивает счётчик откатившихся размещений.
func (m *OrderMetrics) RecordFailed() {
	m.failed.Inc()
}

// RecordInsufficientStock увеличивает счётчик отказов из-за нехватки стока.
func (m *OrderMetrics) RecordInsufficientStock() {
	m.insufficientStock.Inc()
}

// RecordPlacementDuration записывает время размещения заказа.
func (m *OrderMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

// RecordCacheInvalidationFailure увеличивает счётчик сбоев инвалидации кэша.
func (m *OrderMetrics) RecordCacheInvalidationFailure() {
	m.cacheInvalidationFailures.Inc()
}

// RecordEventPublished увеличивает счётчик опубликованных событий.
func (m *OrderMetrics) RecordEventPublished() {
	m.eventsPublished.Inc()
}

// RecordEventPublishFailure увеличивает счётчик сбоев публикации событий.
func (m *OrderMetrics) RecordEventPublishFailure() {
	m.eventPublishFailures.Inc()
}
