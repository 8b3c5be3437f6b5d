package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Операции движка для лейбла `op`.
const (
	OpGetCart        = "get_cart"
	OpAddProduct     = "add_product"
	OpUpdateQuantity = "update_quantity"
	OpRemoveProduct  = "remove_product"
	OpCheckout       = "checkout"
)

// Результаты операций для лейбла `result`.
const (
	ResultOK             = "ok"
	ResultNotFound       = "not_found"
	ResultInvalidRequest = "invalid_request"
	ResultConflict       = "conflict"
	ResultInternal       = "internal"
)

// CartMetrics содержит метрики движка корзины и checkout.
type CartMetrics struct {
	// Счётчик операций движка с разбивкой по результату.
	operations *prometheus.CounterVec

	// Гистограмма времени успешного checkout.
	checkoutDuration prometheus.Histogram

	// Конфликты optimistic locking при сохранении.
	saveConflicts prometheus.Counter

	// Попадания/промахи кэша корзин.
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewCartMetrics создаёт метрики в default registry.
func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cartsvc_operations_total",
			Help: "Total number of cart engine operations grouped by result",
		}, []string{"op", "result"}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "cartsvc_checkout_duration_seconds",
			Help:    "Duration of successful checkout settlements in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		saveConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cartsvc_save_conflicts_total",
			Help: "Total number of optimistic locking conflicts on save",
		}),
		cacheHits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cartsvc_cart_cache_hits_total",
			Help: "Total number of cart cache hits",
		}),
		cacheMisses: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cartsvc_cart_cache_misses_total",
			Help: "Total number of cart cache misses",
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

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
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

// RecordOperation увеличивает счётчик операций для пары op/result.
func (m *CartMetrics) RecordOperation(op, result string) {
	m.operations.WithLabelValues(op, result).Inc()
}

// RecordCheckoutDuration записывает время успешного checkout.
func (m *CartMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordSaveConflict увеличивает счётчик конфликтов optimistic locking.
func (m *CartMetrics) RecordSaveConflict() {
	m.saveConflicts.Inc()
}

// RecordCacheHit увеличивает счётчик попаданий кэша.
func (m *CartMetrics) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RecordCacheMiss увеличивает счётчик промахов кэша.
func (m *CartMetrics) RecordCacheMiss() {
	m.cacheMisses.Inc()
}
