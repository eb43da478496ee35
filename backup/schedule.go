package backup

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs an Engine's backup on a cron schedule, the periodic-
// job counterpart to scheduler.go (Onyx framework)'s SchedulableTask
// registry, narrowed from that type's arbitrary task interface to one
// fixed job (a table-set backup run) since this package has exactly one
// thing worth scheduling.
type Scheduler struct {
	cron   *cron.Cron
	mu     sync.Mutex
	last   []TableResult
	onDone func([]TableResult)
}

// NewScheduler builds a Scheduler that invokes engine.Run(ctx, specs)
// on every spec cron expression (standard 5-field cron syntax), calling
// onDone (if non-nil) with each run's results.
func NewScheduler(engine *Engine, spec string, specs []TableSpec, onDone func([]TableResult)) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), onDone: onDone}
	_, err := s.cron.AddFunc(spec, func() {
		results := engine.Run(context.Background(), specs)
		s.mu.Lock()
		s.last = results
		s.mu.Unlock()
		if s.onDone != nil {
			s.onDone(results)
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

// LastResults returns the most recently completed scheduled run's
// per-table results, or nil if none has run yet.
func (s *Scheduler) LastResults() []TableResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
