package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestCartMetrics_RecordOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCartMetricsWithRegisterer(registry)

	m.RecordOperation(OpAddProduct, ResultOK)
	m.RecordOperation(OpAddProduct, ResultOK)
	m.RecordOperation(OpCheckout, ResultInvalidRequest)

	family := gatherFamily(t, registry, "cartsvc_operations_total")
	if family == nil {
		t.Fatal("operations metric not registered")
	}

	byLabels := map[string]float64{}
	for _, metric := range family.GetMetric() {
		var op, result string
		for _, label := range metric.GetLabel() {
			switch label.GetName() {
			case "op":
				op = label.GetValue()
			case "result":
				result = label.GetValue()
			}
		}
		byLabels[op+"/"+result] = metric.GetCounter().GetValue()
	}

	if got := byLabels[OpAddProduct+"/"+ResultOK]; got != 2 {
		t.Errorf("add_product/ok: want 2, got %v", got)
	}
	if got := byLabels[OpCheckout+"/"+ResultInvalidRequest]; got != 1 {
		t.Errorf("checkout/invalid_request: want 1, got %v", got)
	}
}

func TestCartMetrics_RecordCheckoutDuration(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCartMetricsWithRegisterer(registry)

	m.RecordCheckoutDuration(150 * time.Millisecond)

	family := gatherFamily(t, registry, "cartsvc_checkout_duration_seconds")
	if family == nil {
		t.Fatal("checkout duration metric not registered")
	}
	histogram := family.GetMetric()[0].GetHistogram()
	if histogram.GetSampleCount() != 1 {
		t.Errorf("sample count: want 1, got %d", histogram.GetSampleCount())
	}
}

func TestCartMetrics_CacheCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCartMetricsWithRegisterer(registry)

	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordSaveConflict()

	hits := gatherFamily(t, registry, "cartsvc_cart_cache_hits_total")
	if hits == nil || hits.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Errorf("unexpected cache hits: %v", hits)
	}
	misses := gatherFamily(t, registry, "cartsvc_cart_cache_misses_total")
	if misses == nil || misses.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Errorf("unexpected cache misses: %v", misses)
	}
	conflicts := gatherFamily(t, registry, "cartsvc_save_conflicts_total")
	if conflicts == nil || conflicts.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Errorf("unexpected save conflicts: %v", conflicts)
	}
}

func TestCartMetrics_DoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newCartMetricsWithRegisterer(registry)
	second := newCartMetricsWithRegisterer(registry)

	// Повторная регистрация возвращает уже существующие коллекторы.
	first.RecordCacheHit()
	second.RecordCacheHit()

	hits := gatherFamily(t, registry, "cartsvc_cart_cache_hits_total")
	if hits == nil || hits.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Errorf("expected shared counter with value 2, got %v", hits)
	}
}
