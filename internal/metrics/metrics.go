package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and render outcomes.
const (
	OutcomeFulfilled = "fulfilled"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
	OutcomeReady     = "ready"
)

var (
	activeSessionsDesc = prometheus.NewDesc(
		"issuebrowser_active_sessions",
		"Number of live browser sessions",
		nil,
		nil,
	)

	searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "issuebrowser_searches_total",
		Help: "Searches completed by outcome; discarded results were superseded by a newer search",
	}, []string{"outcome"})

	rendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "issuebrowser_renders_total",
		Help: "Issue body renders completed by outcome",
	}, []string{"outcome"})

	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "issuebrowser_search_duration_seconds",
		Help:    "Time from issuing a search to its result arriving",
		Buckets: prometheus.DefBuckets,
	})

	githubRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "issuebrowser_github_request_duration_seconds",
		Help:    "GitHub API request latency by endpoint and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "code"})
)

// SessionCounter reports how many browser sessions are live.
type SessionCounter interface {
	Len() int
}

// SessionCollector is a custom Prometheus collector that reads the session
// count from the registry on each scrape.
type SessionCollector struct {
	sessions SessionCounter
}

// Describe sends the metric descriptor to the channel.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- activeSessionsDesc
}

// Collect emits the current session count.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(activeSessionsDesc, prometheus.GaugeValue, float64(c.sessions.Len()))
}

var initOnce sync.Once

// Init registers all collectors with reg. Must be called once at startup;
// later calls are no-ops.
func Init(reg prometheus.Registerer, sessions SessionCounter) {
	initOnce.Do(func() {
		reg.MustRegister(
			&SessionCollector{sessions: sessions},
			searchesTotal,
			rendersTotal,
			searchDuration,
			githubRequests,
		)
	})
}

// RecordSearch records a finished search. Discarded searches do not count
// toward the latency histogram.
func RecordSearch(outcome string, elapsed time.Duration) {
	searchesTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeDiscarded {
		searchDuration.Observe(elapsed.Seconds())
	}
}

// RecordRender records a finished body render.
func RecordRender(outcome string) {
	rendersTotal.WithLabelValues(outcome).Inc()
}

// RecordGitHubRequest records one GitHub API round trip. code is 0 when no
// response was received.
func RecordGitHubRequest(endpoint string, code int, elapsed time.Duration) {
	githubRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
