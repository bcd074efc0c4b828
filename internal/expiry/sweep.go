package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"vetting/internal/alert"
	"vetting/pkg/requestcontext"
)

// Subject is one driver as seen by the sweep.
type Subject struct {
	DriverID    string
	Verified    bool
	Credentials Credentials
	Mandatory   []Credential
}

// SubjectSource lists the drivers whose credentials should be swept.
type SubjectSource interface {
	ExpirySubjects(ctx context.Context) ([]Subject, error)
}

// Summary counts what one sweep saw.
type Summary struct {
	Scanned      int
	ExpiringSoon int
	Expired      int
	Alerts       int
}

// Sweeper periodically classifies credentials and raises alerts for expired
// mandatory credentials on verified drivers. It only reports; status changes
// stay an explicit admin decision.
type Sweeper struct {
	source  SubjectSource
	sink    alert.Sink
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
	cron    *cron.Cron
}

type SweeperOption func(*Sweeper)

func WithLogger(l *slog.Logger) SweeperOption  { return func(s *Sweeper) { s.logger = l } }
func WithAlertSink(a alert.Sink) SweeperOption { return func(s *Sweeper) { s.sink = a } }
func WithMetrics(m *Metrics) SweeperOption     { return func(s *Sweeper) { s.metrics = m } }
func WithTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) { s.timeout = d }
}

func NewSweeper(source SubjectSource, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		source:  source,
		logger:  slog.Default(),
		timeout: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one sweep.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	now := requestcontext.Now(ctx)

	subjects, err := s.source.ExpirySubjects(ctx)
	if err != nil {
		s.metrics.observeRun("error")
		return Summary{}, fmt.Errorf("list sweep subjects: %w", err)
	}

	var sum Summary
	for _, subj := range subjects {
		sum.Scanned++
		report := Evaluate(subj.Credentials, now)
		for _, f := range report.Flags {
			switch f.Status {
			case StatusExpired:
				sum.Expired++
			case StatusExpiringSoon:
				sum.ExpiringSoon++
			}
		}
		if !subj.Verified {
			continue
		}
		expired := report.ExpiredAmong(subj.Mandatory)
		if len(expired) == 0 {
			continue
		}
		sum.Alerts++
		s.raise(ctx, subj.DriverID, expired, now)
	}

	s.metrics.observeRun("ok")
	s.metrics.observeSummary(sum)
	s.logger.InfoContext(ctx, "expiry sweep complete",
		"scanned", sum.Scanned,
		"expiring_soon", sum.ExpiringSoon,
		"expired", sum.Expired,
		"alerts", sum.Alerts,
	)
	return sum, nil
}

func (s *Sweeper) raise(ctx context.Context, driverID string, expired []Credential, now time.Time) {
	names := make([]string, len(expired))
	for i, c := range expired {
		names[i] = string(c)
	}
	s.metrics.incAlert()
	if s.sink == nil {
		return
	}
	err := s.sink.Raise(ctx, alert.Alert{
		Kind:       alert.KindCredentialExpired,
		Severity:   alert.SeverityWarning,
		DriverID:   driverID,
		Message:    "verified driver holds expired mandatory credentials",
		Attributes: map[string]string{"credentials": strings.Join(names, ",")},
		RaisedAt:   now,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to raise expiry alert", "driver_id", driverID, "error", err)
	}
}

// Start schedules Run on a cron spec such as "@every 1h" or "0 3 * * *".
func (s *Sweeper) Start(spec string) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.logger.Error("expiry sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
