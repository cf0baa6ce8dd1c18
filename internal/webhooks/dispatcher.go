// Package webhooks delivers change events to subscribed HTTP endpoints
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Delivery headers
const (
	HeaderSignature = "X-OP-Signature"
	HeaderDelivery  = "X-OP-Delivery"
	HeaderEvent     = "X-OP-Event"
)

// MaxResponseBody is how much of a response body a log keeps
const MaxResponseBody = 4 << 10

// Store is the persistence the dispatcher needs
type Store interface {
	ListWebhooks(ctx context.Context, enabledOnly bool) ([]*models.Webhook, error)
	CreateWebhookLog(ctx context.Context, l *models.WebhookLog) (*models.WebhookLog, error)
}

// Options tunes deliveries. Zero values pick the defaults.
type Options struct {
	Timeout time.Duration // per request, default 10s
	Rate    float64       // deliveries per second per webhook, <= 0 is unlimited
	Burst   int           // default 1
	Client  *http.Client  // overrides Timeout when set
	Logger  *slog.Logger
}

// Dispatcher matches events against enabled webhooks and POSTs them
type Dispatcher struct {
	store  Store
	client *http.Client
	logger *slog.Logger

	rate  rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[int]*rate.Limiter
	cached   []*models.Webhook
	loaded   bool

	deliveries *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewDispatcher creates a dispatcher over store
func NewDispatcher(store Store, opts Options) *Dispatcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		store:    store,
		client:   client,
		logger:   logger,
		rate:     limit,
		burst:    burst,
		limiters: make(map[int]*rate.Limiter),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "op",
			Subsystem: "webhooks",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "op",
			Subsystem: "webhooks",
			Name:      "delivery_duration_seconds",
			Help:      "Duration of webhook requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
}

// Collectors returns the dispatcher's prometheus collectors
func (d *Dispatcher) Collectors() []prometheus.Collector {
	return []prometheus.Collector{d.deliveries, d.duration}
}

// Handle delivers event to every matching webhook. A webhook change
// only drops the cached webhook list.
func (d *Dispatcher) Handle(ctx context.Context, event events.Event) error {
	if event.Action == "" {
		return nil
	}
	if event.Action == models.EventWebhookChanged {
		d.invalidate()
		return nil
	}

	hooks, err := d.webhooks(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, w := range hooks {
		if !w.Matches(event.Action, event.ProjectID) {
			continue
		}
		if _, err := d.Deliver(ctx, w, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver POSTs event to one webhook and records the attempt. A log is
// returned whenever the attempt was recorded, even if it failed.
func (d *Dispatcher) Deliver(ctx context.Context, w *models.Webhook, event events.Event) (*models.WebhookLog, error) {
	body, err := Payload(event)
	if err != nil {
		return nil, err
	}
	if err := d.limiter(w.ID).Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for webhook %d rate limit: %w", w.ID, err)
	}

	entry := &models.WebhookLog{
		WebhookID:   w.ID,
		DeliveryID:  uuid.NewString(),
		Event:       event.Action,
		URL:         w.URL,
		RequestBody: string(body),
	}
	deliverErr := d.post(ctx, w, entry, body)

	outcome := "success"
	if deliverErr != nil {
		outcome = "failure"
		d.logger.Warn("webhook delivery failed", "webhook", w.ID, "delivery", entry.DeliveryID, "error", deliverErr)
	} else {
		d.logger.Debug("webhook delivered", "webhook", w.ID, "delivery", entry.DeliveryID, "status", entry.ResponseCode)
	}
	d.deliveries.WithLabelValues(outcome).Inc()

	logged, err := d.store.CreateWebhookLog(ctx, entry)
	if err != nil {
		return nil, errors.Join(deliverErr, err)
	}
	return logged, deliverErr
}

func (d *Dispatcher) post(ctx context.Context, w *models.Webhook, entry *models.WebhookLog, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for webhook %d: %w", w.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "op-webhooks")
	req.Header.Set(HeaderDelivery, entry.DeliveryID)
	req.Header.Set(HeaderEvent, entry.Event)
	if w.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(w.Secret, body))
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	d.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		entry.ResponseBody = err.Error()
		return fmt.Errorf("failed to deliver to webhook %d: %w", w.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	entry.ResponseCode = resp.StatusCode
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBody))
	if err != nil {
		d.logger.Debug("failed to read webhook response", "webhook", w.ID, "error", err)
	}
	entry.ResponseBody = string(respBody)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %d responded with status %d", w.ID, resp.StatusCode)
	}
	return nil
}

// webhooks returns the enabled webhooks, loading them once per change
func (d *Dispatcher) webhooks(ctx context.Context) ([]*models.Webhook, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.cached, nil
	}
	hooks, err := d.store.ListWebhooks(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load webhooks: %w", err)
	}
	d.cached, d.loaded = hooks, true
	return hooks, nil
}

func (d *Dispatcher) invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached, d.loaded = nil, false
}

// limiter returns the rate limiter of one webhook
func (d *Dispatcher) limiter(webhookID int) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[webhookID]
	if !ok {
		l = rate.NewLimiter(d.rate, d.burst)
		d.limiters[webhookID] = l
	}
	return l
}

// Payload builds the request body: the action plus the resource under
// its own name, e.g. {"action":"work_package:updated","work_package":{...}}
func Payload(event events.Event) ([]byte, error) {
	resource, _, _ := strings.Cut(event.Action, ":")
	body := map[string]any{"action": event.Action}
	if len(event.Payload) > 0 {
		body[resource] = event.Payload
	}
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event.Action, err)
	}
	return out, nil
}

// Sign returns the signature header value for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}
