// Package worker relays committed outbox rows to Kafka.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/tx"
)

// Outbox is the claim side of the audit outbox.
type Outbox interface {
	ClaimUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Producer delivers a batch of entries and returns once all are acknowledged.
type Producer interface {
	Produce(ctx context.Context, entries []audit.OutboxEntry) error
}

type Metrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "sacra360_outbox_published_total",
			Help: "Audit outbox entries delivered to Kafka",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "sacra360_outbox_publish_failures_total",
			Help: "Outbox batches that failed to publish and were left for retry",
		}),
	}
}

// OutboxWorker polls the outbox and hands claimed rows to the producer. Rows
// are marked published in the same transaction that claimed them, so a
// failed delivery leaves them for the next tick.
type OutboxWorker struct {
	outbox    Outbox
	producer  Producer
	runner    tx.Runner
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

type Option func(*OutboxWorker)

func WithInterval(d time.Duration) Option {
	return func(w *OutboxWorker) { w.interval = d }
}

func WithBatchSize(n int) Option {
	return func(w *OutboxWorker) { w.batchSize = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *OutboxWorker) { w.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(w *OutboxWorker) { w.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(w *OutboxWorker) { w.now = now }
}

func NewOutboxWorker(outbox Outbox, producer Producer, runner tx.Runner, opts ...Option) *OutboxWorker {
	w := &OutboxWorker{
		outbox:    outbox,
		producer:  producer,
		runner:    runner,
		interval:  2 * time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick; Run only returns on cancellation.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		for {
			n, err := w.PublishBatch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.WarnContext(ctx, "outbox publish failed", "error", err)
				break
			}
			if n < w.batchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// PublishBatch claims, delivers and marks one batch. It returns the number
// of entries published.
func (w *OutboxWorker) PublishBatch(ctx context.Context) (int, error) {
	var published int
	err := w.runner.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := w.outbox.ClaimUnpublished(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := w.producer.Produce(ctx, entries); err != nil {
			return err
		}
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := w.outbox.MarkPublished(ctx, ids, w.now().UTC()); err != nil {
			return err
		}
		published = len(entries)
		return nil
	})
	if err != nil {
		if w.metrics != nil && !errors.Is(err, context.Canceled) {
			w.metrics.Failed.Inc()
		}
		return 0, err
	}
	if w.metrics != nil {
		w.metrics.Published.Add(float64(published))
	}
	return published, nil
}
