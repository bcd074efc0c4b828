package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"vetting/internal/alert"
	"vetting/internal/history/models"
	"vetting/internal/platform/resilience"
	"vetting/pkg/platform/sentinel"
)

var ErrQueueFull = errors.New("reconcile queue full")

const (
	defaultInterval  = 5 * time.Second
	defaultBatchSize = 64
	defaultMaxRounds = 5
	appendOperation  = "history.append"
)

// Appender is the history store write used for replays.
type Appender interface {
	Append(ctx context.Context, e models.Event) error
}

// Executor runs an operation with retry.
type Executor interface {
	Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier resilience.ErrorClassifier) error
}

// Worker drains the queue on a ticker. An entry that keeps failing is
// requeued; after maxRounds drains it is escalated once but never discarded.
type Worker struct {
	queue     *Queue
	store     Appender
	exec      Executor
	logger    *slog.Logger
	alerts    alert.Sink
	metrics   *Metrics
	interval  time.Duration
	batchSize int
	maxRounds int
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithAlertSink(sink alert.Sink) Option {
	return func(w *Worker) { w.alerts = sink }
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithMaxRounds(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxRounds = n
		}
	}
}

func NewWorker(queue *Queue, store Appender, exec Executor, opts ...Option) *Worker {
	w := &Worker{
		queue:     queue,
		store:     store,
		exec:      exec,
		logger:    slog.Default(),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		maxRounds: defaultMaxRounds,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.alerts == nil {
		w.alerts = alert.NewLogSink(w.logger)
	}
	return w
}

// Enqueue schedules e for replay. When the queue is full the event is logged
// in full and a critical alert is raised before ErrQueueFull is returned.
func (w *Worker) Enqueue(ctx context.Context, e models.Event) error {
	if w.queue.TryEnqueue(e) {
		w.metrics.setBacklog(w.queue.Len())
		return nil
	}
	w.escalateFull(ctx, e)
	return ErrQueueFull
}

// Run drains until ctx is done, then makes one last pass with a short
// deadline so queued events are not left behind on shutdown.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.interval)
			w.Drain(drainCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain processes at most one batch and returns how many events were appended.
func (w *Worker) Drain(ctx context.Context) int {
	batch := w.queue.dequeueBatch(w.batchSize)
	defer func() { w.metrics.setBacklog(w.queue.Len()) }()

	appended := 0
	for i, en := range batch {
		err := w.exec.Execute(ctx, appendOperation, func(ctx context.Context) error {
			return w.store.Append(ctx, en.event)
		}, nil)
		switch {
		case err == nil:
			appended++
			w.metrics.attempt("appended")
			w.logger.InfoContext(ctx, "history event reconciled",
				"driver_id", en.event.DriverID.String(),
				"sequence", en.event.Sequence,
				"rounds", en.rounds+1,
			)
		case errors.Is(err, sentinel.ErrDuplicate):
			w.metrics.attempt("duplicate")
			w.raise(ctx, alert.Alert{
				Kind:     alert.KindHistoryDrift,
				Severity: alert.SeverityCritical,
				DriverID: en.event.DriverID.String(),
				Message:  "another event occupies the sequence of a reconciled transition",
				Attributes: map[string]string{
					"sequence": strconv.FormatInt(en.event.Sequence, 10),
					"event_id": en.event.ID.String(),
					"status":   string(en.event.Status),
				},
			})
		case resilience.IsCircuitOpen(err) || ctx.Err() != nil:
			w.metrics.attempt("deferred")
			for _, rest := range batch[i:] {
				w.requeue(ctx, rest)
				w.queue.settle(rest.event.DriverID)
			}
			return appended
		default:
			w.metrics.attempt("failed")
			en.rounds++
			if en.rounds == w.maxRounds {
				w.raise(ctx, alert.Alert{
					Kind:     alert.KindReconcileExhausted,
					Severity: alert.SeverityCritical,
					DriverID: en.event.DriverID.String(),
					Message:  "history append still failing after repeated reconciliation",
					Attributes: map[string]string{
						"sequence": strconv.FormatInt(en.event.Sequence, 10),
						"error":    err.Error(),
					},
				})
			}
			w.requeue(ctx, en)
		}
		w.queue.settle(en.event.DriverID)
	}
	return appended
}

func (w *Worker) requeue(ctx context.Context, en entry) {
	if !w.queue.push(en) {
		w.escalateFull(ctx, en.event)
	}
}

func (w *Worker) escalateFull(ctx context.Context, e models.Event) {
	w.metrics.queueFull()
	w.logger.ErrorContext(ctx, "history event not queued for reconciliation",
		"driver_id", e.DriverID.String(),
		"event_id", e.ID.String(),
		"sequence", e.Sequence,
		"action", string(e.Action),
		"status", string(e.Status),
		"previous_status", string(e.PreviousStatus),
		"changed_by", e.ChangedBy,
		"created_at", e.CreatedAt,
	)
	w.raise(ctx, alert.Alert{
		Kind:     alert.KindReconcileQueueFull,
		Severity: alert.SeverityCritical,
		DriverID: e.DriverID.String(),
		Message:  "reconciliation queue full; history event requires manual replay",
		Attributes: map[string]string{
			"sequence": strconv.FormatInt(e.Sequence, 10),
			"event_id": e.ID.String(),
		},
	})
}

func (w *Worker) raise(ctx context.Context, a alert.Alert) {
	a.RaisedAt = time.Now().UTC()
	if err := w.alerts.Raise(ctx, a); err != nil {
		w.logger.ErrorContext(ctx, "failed to raise alert", "kind", string(a.Kind), "error", err)
	}
}
