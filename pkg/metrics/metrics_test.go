package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentMetrics(reg)
	m.ObserveSession("stripe", "opened", 120*time.Millisecond)
	m.ObserveSession("stripe", "gateway_error", 80*time.Millisecond)
	m.IncTransition("webhook", "captured")
	m.IncTransition("webhook", "captured")
	m.IncTransition("", "failed")
	m.IncShortfall()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := counterValue(mfs, "checkout_sessions_total", map[string]string{"provider": "stripe", "outcome": "opened"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = counterValue(mfs, "payment_transitions_total", map[string]string{"source": "webhook", "outcome": "captured"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = counterValue(mfs, "payment_transitions_total", map[string]string{"source": "unknown", "outcome": "failed"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = counterValue(mfs, "stock_shortfalls_total", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	mf := findMetricFamily(mfs, "checkout_session_duration_seconds")
	require.NotNil(t, mf)
	assert.Equal(t, uint64(2), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/products/{id}", 200, 5*time.Millisecond)
	m.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := counterValue(mfs, "http_requests_total", map[string]string{"route": "/api/v1/products/{id}", "status": "200"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = counterValue(mfs, "http_requests_total", map[string]string{"route": "unknown", "status": "404"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestNilRegistererIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPaymentMetrics(nil).IncShortfall()
		NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
		var m *PaymentMetrics
		m.IncTransition("verify", "captured")
	})
}

func counterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == name && pair.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
