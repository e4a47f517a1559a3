package metrics

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"pdf-chat-client/pkg/ragclient"
	"pdf-chat-client/pkg/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var remoteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pdfchat_remote_request_seconds",
	Help:    "Latency of calls to the document service",
	Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
}, []string{"op", "code"})

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pdfchat_notifications_total",
	Help: "Notifications raised by the workspace",
}, []string{"event", "level"})

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pdfchat_http_requests_total",
	Help: "Requests served by the local API",
}, []string{"method", "route", "status"})

// RecordNotification counts one workspace notification.
func RecordNotification(n workspace.Notification) {
	notificationsTotal.WithLabelValues(n.Event, string(n.Level)).Inc()
}

// pollingGauge reads its value from the most recently registered workspace.
type pollingGauge struct {
	prometheus.GaugeFunc

	mu     sync.RWMutex
	active func() int
}

func newPollingGauge(active func() int) *pollingGauge {
	g := &pollingGauge{active: active}
	g.GaugeFunc = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pdfchat_documents_polling",
		Help: "Documents whose processing status is still being polled",
	}, g.value)
	return g
}

func (g *pollingGauge) value() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return float64(g.active())
}

func (g *pollingGauge) setSource(active func() int) {
	g.mu.Lock()
	g.active = active
	g.mu.Unlock()
}

// RegisterPollingGauge exposes the number of documents whose status is being
// polled. Registering again on the same registry repoints the existing gauge.
func RegisterPollingGauge(reg prometheus.Registerer, active func() int) error {
	err := reg.Register(newPollingGauge(active))
	if err == nil {
		return nil
	}
	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		return err
	}
	existing, ok := already.ExistingCollector.(*pollingGauge)
	if !ok {
		return err
	}
	existing.setSource(active)
	return nil
}

// Handler serves the default registry for fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Middleware counts requests by matched route and final status.
func Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		status := ctx.Response().StatusCode()
		var fiberErr *fiber.Error
		if err != nil && errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
		httpRequestsTotal.WithLabelValues(ctx.Method(), ctx.Route().Path, strconv.Itoa(status)).Inc()
		return err
	}
}

// InstrumentedRemote records latency and outcome of every document service call.
type InstrumentedRemote struct {
	inner workspace.RemoteService
}

func NewInstrumentedRemote(inner workspace.RemoteService) *InstrumentedRemote {
	return &InstrumentedRemote{inner: inner}
}

func observe(op string, start time.Time, err error) {
	code := "ok"
	var apiErr *ragclient.APIError
	switch {
	case errors.As(err, &apiErr):
		code = strconv.Itoa(apiErr.StatusCode)
	case err != nil:
		code = "transport"
	}
	remoteDuration.WithLabelValues(op, code).Observe(time.Since(start).Seconds())
}

func (r *InstrumentedRemote) ListStatus(ctx context.Context) (*ragclient.StatusResponse, error) {
	start := time.Now()
	res, err := r.inner.ListStatus(ctx)
	observe("list_status", start, err)
	return res, err
}

func (r *InstrumentedRemote) Upload(ctx context.Context, filename string, content io.Reader) (*ragclient.UploadResponse, error) {
	start := time.Now()
	res, err := r.inner.Upload(ctx, filename, content)
	observe("upload", start, err)
	return res, err
}

func (r *InstrumentedRemote) DeleteOne(ctx context.Context, docID string) (*ragclient.DeleteResponse, error) {
	start := time.Now()
	res, err := r.inner.DeleteOne(ctx, docID)
	observe("delete", start, err)
	return res, err
}

func (r *InstrumentedRemote) Ask(ctx context.Context, question, scopeKey string) (*ragclient.AskResponse, error) {
	start := time.Now()
	res, err := r.inner.Ask(ctx, question, scopeKey)
	observe("ask", start, err)
	return res, err
}

func (r *InstrumentedRemote) Download(ctx context.Context, docID string, w io.Writer) (int64, error) {
	start := time.Now()
	n, err := r.inner.Download(ctx, docID, w)
	observe("download", start, err)
	return n, err
}
