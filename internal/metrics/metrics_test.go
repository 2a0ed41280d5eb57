package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordOperation("create", OutcomeSuccess, 5*time.Millisecond)
	m.RecordOperation("create", OutcomeSuccess, 5*time.Millisecond)
	m.RecordOperation("get", OutcomeNotFound, time.Millisecond)
	m.RecordOperation("", "", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("create", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("get", OutcomeNotFound)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("unknown", "unknown")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
}

func TestRecordEvent(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordEvent("product.created", true)
	m.RecordEvent("product.deleted", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("product.created", "published")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("product.deleted", "failed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOperation("list", OutcomeSuccess, time.Millisecond)
		m.RecordEvent("product.updated", true)
	})
}
