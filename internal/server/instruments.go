package server

import "github.com/ygrebnov/threadpool/metrics"

// Instrument names registered by every Server.
const (
	MetricConnectionsAccepted = "staticd_connections_accepted_total"
	MetricConnectionsRejected = "staticd_connections_rejected_total"
	MetricResponseBytes       = "staticd_response_bytes_total"
	MetricResponseDuration    = "staticd_response_duration_seconds"
)

type instruments struct {
	accepted  metrics.Counter
	rejected  metrics.Counter
	responses map[int]metrics.Counter
	bytes     metrics.Counter
	duration  metrics.Histogram
}

func newInstruments(p metrics.Provider) instruments {
	if p == nil {
		p = metrics.NoopProvider{}
	}
	count := metrics.WithUnit("1")
	inst := instruments{
		accepted:  p.Counter(MetricConnectionsAccepted, count, metrics.WithDescription("Connections accepted")),
		rejected:  p.Counter(MetricConnectionsRejected, count, metrics.WithDescription("Connections refused by the pool")),
		responses: make(map[int]metrics.Counter, 4),
		bytes:     p.Counter(MetricResponseBytes, metrics.WithUnit("bytes"), metrics.WithDescription("Response body bytes")),
		duration: p.Histogram(MetricResponseDuration,
			metrics.WithUnit("seconds"), metrics.WithDescription("Time from accept to last byte")),
	}
	for _, class := range []int{2, 3, 4, 5} {
		inst.responses[class] = p.Counter(responseMetricName(class), count,
			metrics.WithDescription("Responses by status class"))
	}
	return inst
}

// responseMetricName returns e.g. staticd_responses_4xx_total.
func responseMetricName(class int) string {
	return "staticd_responses_" + string(rune('0'+class)) + "xx_total"
}

func (i instruments) response(status int) {
	if c, ok := i.responses[status/100]; ok {
		c.Add(1)
	}
}
