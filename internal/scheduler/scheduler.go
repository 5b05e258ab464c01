// Package scheduler runs periodic portfolio jobs inside the server process.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// DefaultJobTimeout bounds a single scheduled snapshot.
const DefaultJobTimeout = 2 * time.Minute

// Snapshotter captures the snapshot of the current bucket.
type Snapshotter interface {
	CaptureSnapshot(ctx context.Context) (model.PortfolioSnapshot, error)
}

// ScheduledTask captures portfolio snapshots on a cron schedule.
// A run still in progress when the next one is due causes that run to be skipped.
type ScheduledTask struct {
	cronID  cron.EntryID
	cron    *cron.Cron
	svc     Snapshotter
	log     logrus.FieldLogger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSnapshotTask parses spec (standard 5-field cron syntax or descriptors such as
// "@every 15m") and registers the snapshot job. The task does not run until Start.
func NewSnapshotTask(spec string, svc Snapshotter, log logrus.FieldLogger) (*ScheduledTask, error) {
	log = log.WithField("component", "scheduler")
	cl := cronLogger{log}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	task := &ScheduledTask{
		cron:    c,
		svc:     svc,
		log:     log,
		timeout: DefaultJobTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}

	id, err := c.AddFunc(spec, task.Run)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	task.cronID = id

	return task, nil
}

// Start begins running the job in the background.
func (s *ScheduledTask) Start() {
	s.cron.Start()
	s.log.WithField("next", s.cron.Entry(s.cronID).Next.Format(time.RFC3339)).Info("snapshot schedule started")
}

// Stop cancels a running job and waits for it to return.
func (s *ScheduledTask) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Run captures one snapshot. Failures are logged; the next tick retries.
func (s *ScheduledTask) Run() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	snap, err := s.svc.CaptureSnapshot(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduled snapshot failed")
		return
	}

	s.log.WithFields(logrus.Fields{
		"bucket":          snap.Bucket.Format(time.RFC3339),
		"portfolio_value": snap.TotalValueEUR,
		"duration":        time.Since(start).String(),
	}).Debug("scheduled snapshot stored")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
