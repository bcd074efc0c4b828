package alert

//go:generate mockgen -source=alert.go -destination=mocks/mock_sink.go -package=mocks Sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

type failingSink struct{ err error }

func (f failingSink) Raise(context.Context, Alert) error { return f.err }

func sampleAlert() Alert {
	return Alert{
		Kind:       KindHistoryAppendFailed,
		Severity:   SeverityCritical,
		DriverID:   "d-1",
		Message:    "history append failed after status write",
		Attributes: map[string]string{"sequence": "4"},
		RaisedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLogSink_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sink.Raise(context.Background(), sampleAlert()))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "history_append_failed", rec["alert_kind"])
	assert.Equal(t, "d-1", rec["driver_id"])
	assert.Equal(t, "4", rec["sequence"])
}

func TestNATSSink_PublishesJSON(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewNATSSink(pub, "vetting.alerts")

	require.NoError(t, sink.Raise(context.Background(), sampleAlert()))
	assert.Equal(t, "vetting.alerts", pub.subject)

	var got Alert
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, sampleAlert(), got)
}

func TestNATSSink_PublishError(t *testing.T) {
	sink := NewNATSSink(&recordingPublisher{err: errors.New("no responders")}, "s")
	err := sink.Raise(context.Background(), sampleAlert())
	assert.ErrorContains(t, err, "nats publish")
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	pub := &recordingPublisher{}
	boom := errors.New("boom")
	m := Multi{failingSink{err: boom}, nil, NewNATSSink(pub, "s")}

	err := m.Raise(context.Background(), sampleAlert())
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, pub.data, "later sinks still receive the alert")
}
