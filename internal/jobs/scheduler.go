// Package jobs runs background maintenance of the stock ledger on a cron schedule.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is one run of a ledger job. The context carries the job timeout and is cancelled when
// the scheduler stops.
type JobFunc func(ctx context.Context) error

// JobStatus is the outcome of the most recent run of a job
type JobStatus struct {
	Name     string
	Runs     int
	LastRun  time.Time
	Duration time.Duration
	LastErr  error
	Running  bool
}

type scheduledJob struct {
	entryID cron.EntryID
	timeout time.Duration
	run     JobFunc
	// guards against the startup run overlapping a scheduled one
	active sync.Mutex
	status JobStatus
}

// Scheduler runs named ledger jobs on cron expressions
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*scheduledJob
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cronLog := cronLogger{logger: logger.Named("cron")}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cronLog), cron.WithChain(
			cron.Recover(cronLog),
		)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*scheduledJob),
	}
}

// Start begins firing registered jobs
func (s *Scheduler) Start() {
	s.logger.Info("starting job scheduler", zap.Strings("jobs", s.GetJobNames()))
	s.cron.Start()
}

// Stop cancels running scans and stops the cron loop. The returned context is done once every
// running job has returned.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping job scheduler")
	s.cancel()
	return s.cron.Stop()
}

// AddJob registers job under name. cronExpr takes an optional seconds field
// ("0 */15 * * * *", "@every 10m"); timeout bounds each run, zero means unbounded.
func (s *Scheduler) AddJob(name, cronExpr string, timeout time.Duration, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	sj := &scheduledJob{timeout: timeout, run: job, status: JobStatus{Name: name}}
	entryID, err := s.cron.AddFunc(cronExpr, func() { s.execute(name, sj) })
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}
	sj.entryID = entryID
	s.jobs[name] = sj

	s.logger.Info("added scheduled job",
		zap.String("job_name", name),
		zap.String("cron_expr", cronExpr),
		zap.Duration("timeout", timeout))
	return nil
}

// RunNow runs a registered job outside its schedule and waits for it
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	sj, exists := s.jobs[name]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	return s.execute(name, sj)
}

// RemoveJob unschedules a job by name
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(sj.entryID)
	delete(s.jobs, name)

	s.logger.Info("removed scheduled job", zap.String("job_name", name))
	return nil
}

// GetJobNames returns the registered job names in sorted order
func (s *Scheduler) GetJobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status reports the last run of a job
func (s *Scheduler) Status(name string) (JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[name]
	if !exists {
		return JobStatus{}, false
	}
	return sj.status, true
}

// errSkipped is returned by execute when the previous run of the job is still going
var errSkipped = errors.New("previous run still in progress")

func (s *Scheduler) execute(name string, sj *scheduledJob) error {
	if !sj.active.TryLock() {
		s.logger.Warn("skipping scheduled job", zap.String("job_name", name), zap.Error(errSkipped))
		return errSkipped
	}
	defer sj.active.Unlock()

	ctx := s.ctx
	if sj.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sj.timeout)
		defer cancel()
	}

	start := time.Now()
	s.setStatus(sj, func(st *JobStatus) {
		st.Running = true
		st.LastRun = start.UTC()
	})

	err := sj.run(ctx)

	s.setStatus(sj, func(st *JobStatus) {
		st.Running = false
		st.Runs++
		st.Duration = time.Since(start)
		st.LastErr = err
	})

	if err != nil && errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
		s.logger.Info("scheduled job interrupted by shutdown", zap.String("job_name", name))
		return err
	}
	s.logger.Debug("scheduled job finished",
		zap.String("job_name", name),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("failed", err != nil))
	return err
}

func (s *Scheduler) setStatus(sj *scheduledJob, update func(*JobStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&sj.status)
}

// cronLogger routes the cron library's own messages to zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
