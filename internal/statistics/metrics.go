package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "insecure_proxy"

var (
	trackedHostsDesc   = prometheus.NewDesc(namespace+"_tracked_hosts", "The number of origin hosts in the statistics table.", nil, nil)
	activeRequestsDesc = prometheus.NewDesc(namespace+"_active_requests", "The number of requests waiting on their origin.", nil, nil)
)

// Metrics holds the Prometheus instruments. It uses its own registry so
// tests and multiple proxies in one process do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	requests         *prometheus.CounterVec
	errors           *prometheus.CounterVec
	replacements     prometheus.Counter
	headersRewritten prometheus.Counter
	bodyBytes        prometheus.Histogram
	duration         prometheus.Histogram
}

func NewMetrics(recorder *Recorder) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Proxied requests by outcome.",
		}, []string{"outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Per-request failures by error kind.",
		}, []string{"kind"}),
		replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheme_replacements_total",
			Help:      "https:// occurrences downgraded in response bodies.",
		}),
		headersRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "headers_rewritten_total",
			Help:      "Response header values changed by the pipeline.",
		}),
		bodyBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rewritten_body_bytes",
			Help:      "Size of rewritten response bodies.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 9),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request receipt to response.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.Registry.MustRegister(
		m.requests,
		m.errors,
		m.replacements,
		m.headersRewritten,
		m.bodyBytes,
		m.duration,
		&tableCollector{recorder: recorder},
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observe(o *Outcome) {
	m.requests.WithLabelValues(o.label()).Inc()
	if o.ErrKind != "" {
		m.errors.WithLabelValues(o.ErrKind).Inc()
	}
	m.replacements.Add(float64(o.Replacements))
	m.headersRewritten.Add(float64(o.HeadersRewritten))
	if o.BodyRewritten {
		m.bodyBytes.Observe(float64(o.BodyBytes))
	}
	if o.Duration > 0 {
		m.duration.Observe(o.Duration.Seconds())
	}
}

type tableCollector struct {
	recorder *Recorder
}

var _ prometheus.Collector = new(tableCollector)

func (*tableCollector) Describe(descCh chan<- *prometheus.Desc) {
	descCh <- trackedHostsDesc
	descCh <- activeRequestsDesc
}

func (c *tableCollector) Collect(metricsCh chan<- prometheus.Metric) {
	if c.recorder == nil {
		return
	}
	metricsCh <- prometheus.MustNewConstMetric(trackedHostsDesc, prometheus.GaugeValue, float64(c.recorder.RewriteRecordList.Len()))
	metricsCh <- prometheus.MustNewConstMetric(activeRequestsDesc, prometheus.GaugeValue, float64(c.recorder.ActiveRequestList.Len()))
}
