package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"momentum/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// DueSoonWindow is how far ahead the reminder sweep looks for due dates.
const DueSoonWindow = 24 * time.Hour

// Scheduler runs the background sweeps on cron schedules.
type Scheduler struct {
	scheduler   gocron.Scheduler
	maintenance *services.MaintenanceService
	tasks       *services.TaskService
}

// NewScheduler creates the job scheduler. Both cron expressions are validated
// up front so a bad config fails at startup, not at 3am.
func NewScheduler(maintenance *services.MaintenanceService, tasks *services.TaskService, rebalanceCron, dueSoonCron string) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(rebalanceCron); err != nil {
		return nil, fmt.Errorf("invalid rebalance cron %q: %w", rebalanceCron, err)
	}
	if _, err := parser.Parse(dueSoonCron); err != nil {
		return nil, fmt.Errorf("invalid due-soon cron %q: %w", dueSoonCron, err)
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler:   scheduler,
		maintenance: maintenance,
		tasks:       tasks,
	}

	if _, err := scheduler.NewJob(
		gocron.CronJob(rebalanceCron, false),
		gocron.NewTask(s.runRebalance),
		gocron.WithName("position-rebalance"),
	); err != nil {
		return nil, fmt.Errorf("failed to register rebalance job: %w", err)
	}

	if _, err := scheduler.NewJob(
		gocron.CronJob(dueSoonCron, false),
		gocron.NewTask(s.runDueSoon),
		gocron.WithName("due-soon-sweep"),
	); err != nil {
		return nil, fmt.Errorf("failed to register due-soon job: %w", err)
	}

	return s, nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Println("⏰ Job scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	log.Println("⏹️ Stopping job scheduler...")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runRebalance() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	count, err := s.maintenance.RebalanceAll(ctx)
	if err != nil {
		log.Printf("❌ [REBALANCE] Sweep failed: %v", err)
		return
	}
	log.Printf("✅ [REBALANCE] Sweep complete, %d sibling set(s) renumbered", count)
}

func (s *Scheduler) runDueSoon() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := s.tasks.MarkDueSoon(ctx, DueSoonWindow)
	if err != nil {
		log.Printf("❌ [DUE-SOON] Sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("🔔 [DUE-SOON] Flagged %d task(s) due within %s", count, DueSoonWindow)
	}
}
