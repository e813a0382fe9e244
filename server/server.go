// Package server serves the dashboard over HTTP: the HTML page, its data as
// JSON, and the Prometheus metrics.
//
// Every page request rebuilds the dashboard from the providers; their disk
// cache keeps it cheap.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/etnz/macro"
	"github.com/etnz/macro/renderer"
	"github.com/julienschmidt/httprouter"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	buildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mdash",
		Name:      "dashboard_builds_total",
		Help:      "Number of dashboards built",
	})
	buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mdash",
		Name:      "dashboard_build_duration_seconds",
		Help:      "Time spent fetching and assembling a dashboard",
		Buckets:   prometheus.DefBuckets,
	})
	placeholdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdash",
		Name:      "placeholders_total",
		Help:      "Number of dashboard elements rendered as placeholders, by element and failure kind",
	}, []string{"element", "kind"})
)

func init() {
	prometheus.MustRegister(buildsTotal, buildDuration, placeholdersTotal)
}

// Briefer writes a commentary on a dashboard rendered in markdown.
type Briefer interface {
	Brief(ctx context.Context, dashboard string) (string, error)
}

// Server holds what is needed to build dashboards.
type Server struct {
	Catalogue *macro.Catalogue
	Sources   map[string]macro.SeriesFetcher
	Events    macro.EventFetcher // optional
	Briefer   Briefer            // optional
	Logger    *slog.Logger       // slog.Default() when nil
	Today     func() macro.Date  // macro.Today when nil
}

func (s *Server) today() macro.Date {
	if s.Today != nil {
		return s.Today()
	}
	return macro.Today()
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Responses of compressMinSize bytes or more are gzipped.
const (
	compressMinSize = 1024
	compressLevel   = 6
)

// Handler returns the routes of the server, compressed and logged.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/", s.index)
	router.HandlerFunc(http.MethodGet, "/api/dashboard", s.dashboard)
	router.HandlerFunc(http.MethodGet, "/api/series/:id", s.series)
	router.HandlerFunc(http.MethodGet, "/api/calendar", s.calendar)
	router.HandlerFunc(http.MethodGet, "/healthz", s.healthz)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	h := gzhttp.GzipHandler(router)
	if compress, err := gzhttp.NewWrapper(gzhttp.MinSize(compressMinSize), gzhttp.CompressionLevel(compressLevel)); err == nil {
		h = compress(router)
	}
	return NewRequestLoggingMiddleware(s.logger())(h)
}

// ListenAndServe serves the dashboard on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger().Info("serving dashboard", slog.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// build assembles the dashboard, and records its degraded elements.
func (s *Server) build(r *http.Request) *macro.Dashboard {
	start := time.Now()
	d := macro.Build(r.Context(), s.Catalogue, s.Sources, s.Events, s.today())
	buildsTotal.Inc()
	buildDuration.Observe(time.Since(start).Seconds())

	for _, t := range d.Tiles {
		if t.Err != nil {
			placeholdersTotal.WithLabelValues("tile", t.Kind).Inc()
		}
	}
	for _, c := range d.Charts {
		for _, l := range c.Lines {
			if l.Err != nil {
				placeholdersTotal.WithLabelValues("line", l.Kind).Inc()
			}
		}
	}
	if d.Calendar.Err != nil {
		placeholdersTotal.WithLabelValues("calendar", d.Calendar.Kind).Inc()
	}
	if err := d.Err(); err != nil {
		LoggerFrom(r.Context()).Warn("dashboard degraded", slog.String("error", err.Error()))
	}
	return d
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	d := s.build(r)

	var briefing string
	if s.Briefer != nil && r.URL.Query().Get("brief") != "" {
		var err error
		briefing, err = s.Briefer.Brief(r.Context(), renderer.RenderDashboard(d))
		if err != nil {
			LoggerFrom(r.Context()).Warn("briefing failed", slog.String("error", err.Error()))
		}
	}

	var buf bytes.Buffer
	if err := renderer.RenderHTML(&buf, d, briefing); err != nil {
		LoggerFrom(r.Context()).Error("cannot render dashboard", slog.String("error", err.Error()))
		http.Error(w, "cannot render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, r, http.StatusOK, s.build(r))
}

func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, r, http.StatusOK, macro.BuildSidebar(r.Context(), s.Catalogue, s.Events, s.today()))
}

// seriesResponse is the payload of /api/series/:id.
type seriesResponse struct {
	Indicator macro.Indicator `json:"indicator"`
	Transform string          `json:"transform"`
	Series    *macro.Series   `json:"series"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// series serves one catalogued series. Query parameters: transform (value,
// yoy or mom) and since (a date, possibly relative like -1y).
func (s *Server) series(w http.ResponseWriter, r *http.Request) {
	id := httprouter.ParamsFromContext(r.Context()).ByName("id")
	ind, ok := s.Catalogue.Indicator(id)
	if !ok {
		sendJSON(w, r, http.StatusNotFound, errorResponse{Error: "unknown series " + id})
		return
	}

	q := r.URL.Query()
	from := s.Catalogue.Start
	if since := q.Get("since"); since != "" {
		var err error
		if from, err = macro.ParseDate(since); err != nil {
			sendJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	transform := q.Get("transform")
	if err := macro.CheckTransform(transform); err != nil {
		sendJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if transform == "" {
		transform = macro.TransformValue
	}

	series, err := macro.FetchIndicator(r.Context(), ind, s.Sources, macro.NewRange(s.Catalogue.Start, s.today()))
	if err == nil {
		series, err = series.Transform(transform)
	}
	if err != nil {
		kind := macro.ErrorKind(err)
		placeholdersTotal.WithLabelValues("series", kind).Inc()
		code := http.StatusBadGateway
		if errors.Is(err, macro.ErrEmptyResult) {
			code = http.StatusNotFound
		}
		sendJSON(w, r, code, errorResponse{Error: err.Error(), Kind: kind})
		return
	}
	sendJSON(w, r, http.StatusOK, seriesResponse{Indicator: ind, Transform: transform, Series: series.Since(from)})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func sendJSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	content, err := json.Marshal(data)
	if err != nil {
		LoggerFrom(r.Context()).Error("cannot encode response", slog.String("error", err.Error()))
		http.Error(w, "cannot encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(content)
}
