package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vetting/internal/alert"
	driverModels "vetting/internal/driver/models"
	"vetting/internal/history/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/sentinel"
)

type DriverReader interface {
	FindByID(ctx context.Context, driverID id.DriverID) (*driverModels.Driver, error)
}

type HistoryReader interface {
	Latest(ctx context.Context, driverID id.DriverID) (models.Event, error)
}

// Report is the outcome of one consistency check.
type Report struct {
	DriverID      id.DriverID
	DriverStatus  driverModels.Status
	HistoryStatus driverModels.Status
	HasHistory    bool
	// Pending is set when a replay for the driver is still queued; a mismatch
	// is then expected and not reported as drift.
	Pending    bool
	Consistent bool
}

// Checker verifies driver.status == latest(history).status. A driver with no
// history must still be in its initial status.
type Checker struct {
	drivers DriverReader
	history HistoryReader
	queue   *Queue
	alerts  alert.Sink
	metrics *Metrics
	logger  *slog.Logger
}

func NewChecker(drivers DriverReader, history HistoryReader, queue *Queue, alerts alert.Sink, metrics *Metrics, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if alerts == nil {
		alerts = alert.NewLogSink(logger)
	}
	return &Checker{drivers: drivers, history: history, queue: queue, alerts: alerts, metrics: metrics, logger: logger}
}

func (c *Checker) Verify(ctx context.Context, driverID id.DriverID) (Report, error) {
	d, err := c.drivers.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Report{}, dErrors.New(dErrors.CodeNotFound, "driver not found")
		}
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load driver")
	}
	report := Report{DriverID: driverID, DriverStatus: d.Status}
	if c.queue != nil {
		report.Pending = c.queue.Pending(driverID)
	}

	latest, err := c.history.Latest(ctx, driverID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		report.Consistent = d.Status == driverModels.StatusIncomplete
	case err != nil:
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	default:
		report.HasHistory = true
		report.HistoryStatus = latest.Status
		report.Consistent = latest.Status == d.Status
	}

	if !report.Consistent && !report.Pending {
		c.metrics.drift()
		c.logger.ErrorContext(ctx, "driver status disagrees with history",
			"driver_id", driverID.String(),
			"driver_status", string(report.DriverStatus),
			"history_status", string(report.HistoryStatus),
		)
		raiseErr := c.alerts.Raise(ctx, alert.Alert{
			Kind:     alert.KindHistoryDrift,
			Severity: alert.SeverityCritical,
			DriverID: driverID.String(),
			Message:  fmt.Sprintf("driver is %s but latest history is %q", report.DriverStatus, report.HistoryStatus),
			RaisedAt: time.Now().UTC(),
		})
		if raiseErr != nil {
			c.logger.ErrorContext(ctx, "failed to raise alert", "error", raiseErr)
		}
	}
	return report, nil
}
