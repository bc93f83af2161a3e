// v1
// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus instruments for the analyzer service.
// All methods tolerate a nil receiver so tests can pass nil.
type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	analysesTotal     prometheus.Counter
	analysisDuration  prometheus.Histogram
	pipelineOutcomes  *prometheus.CounterVec
	oracleCalls       *prometheus.CounterVec
	oracleDuration    prometheus.Histogram
	poolRooms         prometheus.Gauge
	poolBuildings     prometheus.Gauge
	roomsSkipped      prometheus.Counter
	simulationsTotal  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analyzer_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		analysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_analyses_total",
			Help: "Total campus analysis cycles executed.",
		}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_analysis_duration_seconds",
			Help:    "Histogram of full analysis cycle durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		pipelineOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_room_pipelines_total",
			Help: "Room pipeline executions by outcome (ok or fallback).",
		}, []string{"outcome"}),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_oracle_calls_total",
			Help: "Reasoning Oracle invocations by outcome.",
		}, []string{"outcome"}),
		oracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_oracle_call_duration_seconds",
			Help:    "Histogram of Reasoning Oracle call durations.",
			Buckets: prometheus.DefBuckets,
		}),
		poolRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analyzer_pool_rooms",
			Help: "Room entities currently tracked by the agent pool.",
		}),
		poolBuildings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analyzer_pool_buildings",
			Help: "Building entities currently tracked by the agent pool.",
		}),
		roomsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_pool_rooms_skipped_total",
			Help: "Requested room ids skipped for missing layout configuration.",
		}),
		simulationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_simulations_total",
			Help: "What-if simulation runs executed.",
		}),
	}

	prometheus.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.analysesTotal,
		m.analysisDuration,
		m.pipelineOutcomes,
		m.oracleCalls,
		m.oracleDuration,
		m.poolRooms,
		m.poolBuildings,
		m.roomsSkipped,
		m.simulationsTotal,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request counts and latencies for one route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes the Prometheus exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) AnalysisRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.analysesTotal.Inc()
	m.analysisDuration.Observe(duration.Seconds())
}

func (m *Metrics) PipelineOutcome(outcome string) {
	if m == nil {
		return
	}
	m.pipelineOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OracleCall(duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.oracleCalls.WithLabelValues(outcome).Inc()
	m.oracleDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetPoolSize(rooms, buildings int) {
	if m == nil {
		return
	}
	m.poolRooms.Set(float64(rooms))
	m.poolBuildings.Set(float64(buildings))
}

func (m *Metrics) RoomsSkipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.roomsSkipped.Add(float64(n))
}

func (m *Metrics) SimulationRun() {
	if m == nil {
		return
	}
	m.simulationsTotal.Inc()
}
