package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Prometheus struct {
	reg *prometheus.Registry

	lookupDuration *prometheus.HistogramVec
	oracleDuration *prometheus.HistogramVec
	cartEvents     *prometheus.HistogramVec
	httpDuration   *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
}

// NewPrometheus registers the storefront metrics on a dedicated registry so
// that several instances (tests) never collide on the global one.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Prometheus{
		reg: reg,
		lookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_lookup_duration_ms",
			Help:    "Catalog page lookup duration by serving tier",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"source", "tier"}),
		oracleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricing_oracle_duration_ms",
			Help:    "Price oracle call duration",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}, []string{"result"}),
		cartEvents: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cart_event_processing_ms",
			Help:    "Cart change event processing duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request duration",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "route", "status"}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits by cache",
		}, []string{"cache"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses by cache",
		}, []string{"cache"}),
	}
}

func (p *Prometheus) ObserveLookup(source string, cacheMs, storeMs float64) {
	p.lookupDuration.WithLabelValues(source, "cache").Observe(cacheMs)
	if storeMs > 0 {
		p.lookupDuration.WithLabelValues(source, "store").Observe(storeMs)
	}
}

func (p *Prometheus) ObserveOracle(durMs float64, ok bool) {
	p.oracleDuration.WithLabelValues(result(ok)).Observe(durMs)
}

func (p *Prometheus) ObserveCartEvent(processMs float64, ok bool) {
	p.cartEvents.WithLabelValues(result(ok)).Observe(processMs)
}

func (p *Prometheus) ObserveHTTP(method, route string, status int, durMs float64) {
	p.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durMs)
}

func (p *Prometheus) IncCacheHit(cache string)  { p.cacheHits.WithLabelValues(cache).Inc() }
func (p *Prometheus) IncCacheMiss(cache string) { p.cacheMisses.WithLabelValues(cache).Inc() }

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
