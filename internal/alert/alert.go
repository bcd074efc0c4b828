// Package alert carries operational alerts: conditions an operator must act on
// that are not failures of the request that raised them.
package alert

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Kind string

const (
	KindHistoryAppendFailed Kind = "history_append_failed"
	KindReconcileExhausted  Kind = "history_reconcile_exhausted"
	KindReconcileQueueFull  Kind = "history_reconcile_queue_full"
	KindHistoryDrift        Kind = "history_drift"
	KindCredentialExpired   Kind = "credential_expired"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a single operational signal.
type Alert struct {
	Kind       Kind              `json:"kind"`
	Severity   Severity          `json:"severity"`
	DriverID   string            `json:"driver_id,omitempty"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RaisedAt   time.Time         `json:"raised_at"`
}

// Sink delivers alerts. Raise must not block the caller for long; callers
// ignore delivery errors beyond logging them.
type Sink interface {
	Raise(ctx context.Context, a Alert) error
}

// LogSink writes alerts to the structured log. It is always part of the chain
// so an alert survives a broker outage.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Raise(ctx context.Context, a Alert) error {
	level := slog.LevelWarn
	if a.Severity == SeverityCritical {
		level = slog.LevelError
	}
	args := []any{
		"alert_kind", string(a.Kind),
		"severity", string(a.Severity),
		"driver_id", a.DriverID,
		"raised_at", a.RaisedAt,
	}
	for k, v := range a.Attributes {
		args = append(args, k, v)
	}
	s.logger.Log(ctx, level, a.Message, args...)
	return nil
}

// Multi fans an alert out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Raise(ctx context.Context, a Alert) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Raise(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
