// Package scheduler runs the ingestor's periodic background jobs. The
// block_parser mode registers the archive directory rescan here; the
// sync-check mode runs one reconciliation pass per invocation and
// registers no job.
package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

var s gocron.Scheduler

// Job is a unit of periodic work registered with the scheduler.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func()
}

// Start creates the underlying gocron scheduler and registers jobs.
func Start(jobs ...Job) error {
	var err error
	s, err = gocron.NewScheduler()
	if err != nil {
		return err
	}

	for _, j := range jobs {
		job := j
		_, err = s.NewJob(
			gocron.DurationJob(job.Interval),
			gocron.NewTask(func() {
				xlog.Debugf("scheduler: running job %q", job.Name)
				job.Run()
			}),
		)
		if err != nil {
			return err
		}
		xlog.Infof("scheduler: registered job %q every %s", job.Name, job.Interval)
	}

	s.Start()
	return nil
}

// Shutdown stops the scheduler, waiting for any in-flight job to finish.
func Shutdown() {
	if s != nil {
		s.Shutdown()
	}
}
