package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests",
		},
	)

	RPCCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_rpc_calls_total",
			Help: "Remote procedure calls by procedure and result code",
		},
		[]string{"procedure", "code"},
	)

	EntriesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "guestbook_entries_created_total",
			Help: "Total number of guestbook entries stored",
		},
	)

	StoreFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_store_failures_total",
			Help: "Store failures swallowed or surfaced by the guestbook service",
		},
		[]string{"op"},
	)

	FeedProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_feed_events_total",
			Help: "Total number of entry events processed by feed workers",
		},
		[]string{"result"},
	)

	FeedLastEntry = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestbook_feed_last_entry_timestamp_seconds",
			Help: "Creation time of the most recent entry seen by the feed",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current RabbitMQ depth of the feed queue",
		},
	)

	WorkerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_active_goroutines",
			Help: "Number of active feed worker goroutines",
		},
	)
)

var once sync.Once

// Init registers metrics with Prometheus. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal, RequestDuration, InFlight,
			RPCCalls, EntriesCreated, StoreFailures,
			FeedProcessed, FeedLastEntry, QueueDepth, WorkerActive,
		)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		InFlight.Inc()
		defer InFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
