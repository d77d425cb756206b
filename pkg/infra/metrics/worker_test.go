package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type recordingExporter struct {
	mu     sync.Mutex
	events []*telemetry.VerdictEvent
	err    error
	closed bool
}

func (e *recordingExporter) Name() string { return "recording" }

func (e *recordingExporter) ValidateConfig(map[string]interface{}) error { return nil }

func (e *recordingExporter) WithSettings(map[string]interface{}) (telemetry.Exporter, error) {
	return e, nil
}

func (e *recordingExporter) Handle(_ context.Context, evt *telemetry.VerdictEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
	return e.err
}

func (e *recordingExporter) Close() { e.closed = true }

func (e *recordingExporter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

func TestWorker_ExportsEvents(t *testing.T) {
	exporter := &recordingExporter{}
	w := NewWorker(logrus.New(), []telemetry.Exporter{exporter})
	w.StartWorkers(2)

	w.Record(&telemetry.VerdictEvent{Fingerprint: "abc", RiskLevel: "low"})
	w.Record(&telemetry.VerdictEvent{Fingerprint: "def", RiskLevel: "high"})
	w.Record(nil)

	assert.Eventually(t, func() bool { return exporter.count() == 2 }, time.Second, 10*time.Millisecond)

	w.Shutdown()
	assert.True(t, exporter.closed)

	// no-op after shutdown
	w.Record(&telemetry.VerdictEvent{Fingerprint: "ghi"})
	w.Shutdown()
	assert.Equal(t, 2, exporter.count())
}

func TestWorker_ExporterErrorDoesNotStopWorker(t *testing.T) {
	exporter := &recordingExporter{err: errors.New("broker down")}
	w := NewWorker(logrus.New(), []telemetry.Exporter{exporter})
	w.StartWorkers(1)
	defer w.Shutdown()

	w.Record(&telemetry.VerdictEvent{Fingerprint: "a"})
	w.Record(&telemetry.VerdictEvent{Fingerprint: "b"})

	assert.Eventually(t, func() bool { return exporter.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestWorker_DropsWhenQueueFull(t *testing.T) {
	exporter := &recordingExporter{}
	w := NewWorker(logrus.New(), []telemetry.Exporter{exporter}, WithQueueSize(1))

	// not started: the queue fills and further tasks are dropped
	for i := 0; i < 5; i++ {
		w.Record(&telemetry.VerdictEvent{Fingerprint: "x"})
	}
	w.StartWorkers(1)
	defer w.Shutdown()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, exporter.count())
}
