package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/pubsub"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/wallet"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

var _ interfaces.Service = (*Service)(nil)

type ServiceOpts struct {
	Address        string
	AllowedOrigins []string

	Exchange  *application.Exchange
	WalletSvc *wallet.Service
	PubSubSvc *pubsub.Service

	// Registerer and Gatherer default to a dedicated registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func (o ServiceOpts) validate() error {
	if _, _, err := net.SplitHostPort(o.Address); err != nil {
		return fmt.Errorf("invalid address %q: %s", o.Address, err)
	}
	if o.Exchange == nil {
		return fmt.Errorf("missing exchange")
	}
	if o.WalletSvc == nil {
		return fmt.Errorf("missing wallet service")
	}
	if o.PubSubSvc == nil {
		return fmt.Errorf("missing pubsub service")
	}
	if (o.Registerer == nil) != (o.Gatherer == nil) {
		return fmt.Errorf("registerer and gatherer must be both set or unset")
	}
	return nil
}

type Service struct {
	opts    ServiceOpts
	hub     *Hub
	metrics *metrics
	handler http.Handler
	server  *http.Server
}

// NewService returns the HTTP interface of the exchange. Its websocket hub
// is added as a sink of the event pubsub.
func NewService(opts ServiceOpts) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	if opts.Registerer == nil {
		reg := prometheus.NewRegistry()
		opts.Registerer, opts.Gatherer = reg, reg
	}

	m, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}

	s := &Service{
		opts:    opts,
		hub:     NewHub(),
		metrics: m,
	}
	opts.PubSubSvc.AddSink(s.hub)

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	mux.Handle("GET /v1/events", s.hub)

	origins := opts.AllowedOrigins
	if len(origins) <= 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)

	return s, nil
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	log.Infof("http interface is listening on %s", lis.Addr())
	return nil
}

func (s *Service) Stop() {
	s.hub.Close()
	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http server")
	}
	log.Debug("stopped http interface")
}

// handle registers h for pattern and tracks its requests.
func (s *Service) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h(rec, r)
		s.metrics.observe(pattern, strconv.Itoa(rec.status), time.Since(start))
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dex",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of handled requests by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dex",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(route, code string, elapsed time.Duration) {
	m.requests.WithLabelValues(route, code).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
