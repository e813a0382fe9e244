// Package remote contains the HTTP plumbing shared by the data providers: a
// daily disk cache, JSON helpers, error classification and request metrics.
package remote

import (
	"net"
	"net/http"
	"time"

	"github.com/etnz/macro"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 20 * time.Second

// Options configures an upstream client.
type Options struct {
	Timeout  time.Duration // DefaultTimeout when zero
	CacheDir string        // responses are not cached when empty
	Period   macro.Period  // cache expiry, daily by default
	// Cacheable reports whether a 2xx response body may be cached. Providers
	// that signal failures in 200 responses use it to keep them out of the
	// cache. Every 2xx response is cached when nil.
	Cacheable func(body []byte) bool
}

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdash",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Number of requests sent to data providers, by status code",
	}, []string{"provider", "code", "method"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mdash",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Time spent waiting for data providers",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "code", "method"})
	failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdash",
		Subsystem: "upstream",
		Name:      "failures_total",
		Help:      "Number of failed provider calls, by kind (auth, network, empty)",
	}, []string{"provider", "kind"})
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdash",
		Subsystem: "upstream",
		Name:      "cache_hits_total",
		Help:      "Number of responses served from the disk cache",
	}, []string{"provider"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, failuresTotal, cacheHits)
}

// NewClient returns an http.Client for the named provider. Requests that reach
// the network are counted and timed; successful responses are cached on disk
// when opts.CacheDir is set.
func NewClient(provider string, opts Options) *http.Client {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	labels := prometheus.Labels{"provider": provider}
	var rt http.RoundTripper = promhttp.InstrumentRoundTripperCounter(requestsTotal.MustCurryWith(labels),
		promhttp.InstrumentRoundTripperDuration(requestDuration.MustCurryWith(labels), tr))
	if opts.CacheDir != "" {
		rt = &diskCache{base: rt, dir: opts.CacheDir, period: opts.Period, provider: provider, cacheable: opts.Cacheable}
	}
	return &http.Client{Timeout: opts.Timeout, Transport: rt}
}

// CountFailure records a failed call of a provider in the metrics.
func CountFailure(provider string, err error) {
	if kind := macro.ErrorKind(err); kind != "" {
		failuresTotal.WithLabelValues(provider, kind).Inc()
	}
}
