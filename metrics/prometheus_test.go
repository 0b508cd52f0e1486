package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusProvider_Instruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusProvider(reg)

	c := p.Counter("pool_tasks_total", WithDescription("tasks"))
	c.Add(2)
	c.Add(-5) // dropped: counters are monotonic
	p.Counter("pool_tasks_total").Add(1)

	g := p.UpDownCounter("pool_queue_length")
	g.Add(4)
	g.Add(-1)

	h := p.Histogram("pool_task_seconds", WithUnit("seconds"))
	h.Record(0.01)
	h.Record(0.2)

	require.InDelta(t, 3.0, testutil.ToFloat64(p.counters["pool_tasks_total"]), 1e-9)
	require.InDelta(t, 3.0, testutil.ToFloat64(p.gauges["pool_queue_length"]), 1e-9)

	n, err := testutil.GatherAndCount(reg, "pool_tasks_total", "pool_queue_length", "pool_task_seconds")
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestPrometheusProvider_ConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusProvider(reg)

	p.Counter("labelled_total", WithAttributes(map[string]string{"pool": "http"})).Add(1)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "labelled_total", families[0].GetName())
	require.Equal(t, "labelled_total", families[0].GetHelp())

	labels := families[0].GetMetric()[0].GetLabel()
	require.Len(t, labels, 1)
	require.Equal(t, "pool", labels[0].GetName())
	require.Equal(t, "http", labels[0].GetValue())
}
