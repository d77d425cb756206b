package metrics

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/domain/telemetry"
	"github.com/NeuralTrust/NewsGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	defaultQueueSize     = 1000
	defaultExportTimeout = 5 * time.Second
)

// Worker records verdict events off the request path: Prometheus counters
// and every configured telemetry exporter.
type Worker interface {
	StartWorkers(n int)
	Shutdown()
	Record(evt *telemetry.VerdictEvent)
}

type worker struct {
	logger        *logrus.Logger
	exporters     []telemetry.Exporter
	taskChan      chan func()
	exportTimeout time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	closed        atomic.Bool
	wg            sync.WaitGroup
}

type WorkerOption func(*worker)

func WithQueueSize(n int) WorkerOption {
	return func(w *worker) {
		w.taskChan = make(chan func(), n)
	}
}

func WithExportTimeout(d time.Duration) WorkerOption {
	return func(w *worker) {
		w.exportTimeout = d
	}
}

func NewWorker(logger *logrus.Logger, exporters []telemetry.Exporter, opts ...WorkerOption) Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		logger:        logger,
		exporters:     exporters,
		taskChan:      make(chan func(), defaultQueueSize),
		exportTimeout: defaultExportTimeout,
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (m *worker) Record(evt *telemetry.VerdictEvent) {
	if evt == nil {
		return
	}
	m.enqueueTask(func() {
		prometheus.VerdictsTotal.WithLabelValues(evt.RiskLevel, strconv.FormatBool(evt.IsBlocked)).Inc()
	}, evt.Fingerprint)

	if len(m.exporters) == 0 {
		return
	}
	m.enqueueTask(func() {
		m.export(evt)
	}, evt.Fingerprint)
}

func (m *worker) export(evt *telemetry.VerdictEvent) {
	for _, exporter := range m.exporters {
		ctx, cancel := context.WithTimeout(m.ctx, m.exportTimeout)
		err := exporter.Handle(ctx, evt)
		cancel()
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"exporter":    exporter.Name(),
				"fingerprint": evt.Fingerprint,
			}).WithError(err).Error("exporter failed")
		}
	}
}

func (m *worker) StartWorkers(n int) {
	m.logger.WithField("workers", n).Info("starting metrics workers")
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case task := <-m.taskChan:
					m.run(task)
				case <-m.ctx.Done():
					return
				}
			}
		}()
	}
}

func (m *worker) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithField("panic", r).Error("metrics task panicked")
		}
	}()
	task()
}

func (m *worker) Shutdown() {
	if m.closed.Swap(true) {
		return
	}
	m.logger.Info("shutting down metrics workers")
	m.cancel()
	m.wg.Wait()
	for _, exporter := range m.exporters {
		exporter.Close()
	}
	m.logger.Info("metrics workers stopped")
}

func (m *worker) enqueueTask(task func(), fingerprint string) {
	if m.closed.Load() {
		return
	}
	select {
	case m.taskChan <- task:
	default:
		m.logger.WithField("fingerprint", fingerprint).
			Warn("taskChan is full, dropping metrics task")
	}
}
