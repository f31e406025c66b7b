// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"go.uber.org/zap"
)

// Job is a named unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration // per-run deadline; zero means 30s
	Run      func(ctx context.Context) error
}

// Scheduler runs each Job on its own ticker until Stop is called.
type Scheduler struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewScheduler creates a scheduler for jobs. Jobs with a non-positive
// interval are skipped.
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	s := &Scheduler{log: logger, stopCh: make(chan struct{})}
	for _, j := range jobs {
		if j.Interval <= 0 {
			logger.Info("background job disabled", zap.String("job", j.Name))
			continue
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

// Start begins one loop per job.
func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(j)
		s.log.Info("background job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals every loop to exit and waits for in-flight runs. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Scheduler) loop(j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce(j)
		}
	}
}

func (s *Scheduler) runOnce(j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		s.log.Error("background job failed", zap.String("job", j.Name), zap.Error(err))
	}
}

// OrphanScanJob reports tenant collections that no organization references.
// It never drops anything; tenantctl sweep does that.
func OrphanScanJob(svc *lifecycle.Service, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "orphan-scan",
		Interval: interval,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			res, err := svc.SweepOrphans(ctx, true)
			if err != nil {
				return err
			}
			if len(res.Orphans) > 0 {
				logger.Warn("unreferenced tenant collections found",
					zap.Strings("collections", res.Orphans))
			}
			return nil
		},
	}
}
