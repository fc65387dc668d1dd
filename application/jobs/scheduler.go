package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/events"
)

// JobSchedule is one entry in the static calendar table.
type JobSchedule struct {
	Name        string
	Spec        string
	Subject     string
	Description string
}

// DefaultSchedules is the static calendar table: which jobs fire when,
// independent of project activity.
var DefaultSchedules = []JobSchedule{
	{
		Name:        events.JobCommunityDetection,
		Spec:        "0 3 * * *",
		Subject:     events.JobCommunityDetection,
		Description: "Nightly entity community detection",
	},
	{
		Name:        events.JobMemoryDecay,
		Spec:        "0 4 * * *",
		Subject:     events.JobMemoryDecay,
		Description: "Nightly memory relevance decay",
	},
	{
		Name:        events.JobConflictScan,
		Spec:        "0 5 * * 0",
		Subject:     events.JobConflictScan,
		Description: "Weekly memory conflict scan",
	},
}

// Scheduler fires Job Triggers on fixed calendar schedules. A schedule
// whose previous firing is still running is suppressed, not queued.
type Scheduler struct {
	cron      *cron.Cron
	publisher ports.TriggerPublisher
	schedules []JobSchedule
	entries   map[string]cron.EntryID
	orgID     string
	logger    *zap.Logger
	stopOnce  sync.Once
}

// NewScheduler builds a scheduler over the given schedule table.
func NewScheduler(
	publisher ports.TriggerPublisher,
	schedules []JobSchedule,
	orgID string,
	logger *zap.Logger,
) *Scheduler {
	cronLogger := &zapCronLogger{logger: logger}
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		publisher: publisher,
		schedules: schedules,
		entries:   make(map[string]cron.EntryID),
		orgID:     orgID,
		logger:    logger,
	}
}

// Start registers every schedule and begins firing. Each registered job
// logs its first scheduled time.
func (s *Scheduler) Start() error {
	for _, schedule := range s.schedules {
		schedule := schedule
		id, err := s.cron.AddFunc(schedule.Spec, func() { s.fire(schedule) })
		if err != nil {
			return fmt.Errorf("failed to register schedule %q (%s): %w", schedule.Name, schedule.Spec, err)
		}
		s.entries[schedule.Name] = id
	}

	s.cron.Start()

	for name, id := range s.entries {
		s.logger.Info("Job scheduled",
			zap.String("job", name),
			zap.Time("nextRun", s.cron.Entry(id).Next),
		)
	}
	return nil
}

// fire publishes one cron-sourced Job Trigger. A publish failure is
// logged and swallowed; it must never crash the timer.
func (s *Scheduler) fire(schedule JobSchedule) {
	trigger := events.NewJobTrigger(schedule.Name, events.TriggeredByCron)
	trigger.OrgID = s.orgID

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if err := s.publisher.Publish(ctx, trigger); err != nil {
		s.logger.Error("Failed to publish scheduled job trigger",
			zap.Error(err),
			zap.String("job", schedule.Name),
			zap.String("executionID", trigger.ExecutionID),
		)
		return
	}

	s.logger.Info("Scheduled job trigger published",
		zap.String("job", schedule.Name),
		zap.String("executionID", trigger.ExecutionID),
	)
}

// Stop cancels all timers. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		s.logger.Info("Scheduler stopped")
	})
}

// NextRuns returns the next fire time per job for introspection.
func (s *Scheduler) NextRuns() map[string]time.Time {
	next := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

// Schedules returns the static schedule table.
func (s *Scheduler) Schedules() []JobSchedule {
	return s.schedules
}

// zapCronLogger adapts zap to the cron logger interface.
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, zap.Any("details", keysAndValues))
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, zap.Error(err), zap.Any("details", keysAndValues))
}
