package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "polls_total", Help: "Timeline fetches by result"},
		[]string{"result"},
	)
	PostsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posts_total", Help: "Admitted posts by processing outcome"},
		[]string{"outcome"},
	)
	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatches_total", Help: "Trade tasks spawned"},
		[]string{"venue", "side"},
	)
	DispatchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_failures_total", Help: "Trade tasks that returned an engine error"},
		[]string{"venue", "side"},
	)
	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "poll_duration_seconds", Help: "Timeline fetch and processing latency", Buckets: prometheus.DefBuckets},
	)
	SeenPosts = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "seen_posts", Help: "Post ids currently held by the dedup store"},
	)
	TradesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "trades_in_flight", Help: "Trade tasks currently running"},
	)
)

func init() {
	prometheus.MustRegister(PollsTotal, PostsTotal, DispatchesTotal, DispatchFailuresTotal, PollDuration, SeenPosts, TradesInFlight)
}

// Serve exposes /metrics plus any extra handlers on addr in the background.
func Serve(addr string, extra map[string]http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	for path, h := range extra {
		mux.Handle(path, h)
	}
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
