package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"crowdvest/internal/services"
)

// Scheduler owns the background jobs, currently the nightly analytics rollup
type Scheduler struct {
	scheduler        gocron.Scheduler
	analyticsService *services.AnalyticsService
}

func NewScheduler(analyticsService *services.AnalyticsService) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler:        scheduler,
		analyticsService: analyticsService,
	}

	if err := s.register(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register() error {
	// Roll up the previous day shortly after midnight UTC
	_, err := s.scheduler.NewJob(
		gocron.CronJob("10 0 * * *", false),
		gocron.NewTask(s.rollupYesterday),
		gocron.WithName("analytics_daily_rollup"),
	)
	if err != nil {
		return fmt.Errorf("failed to register rollup job: %w", err)
	}
	return nil
}

func (s *Scheduler) rollupYesterday() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	day := time.Now().UTC().AddDate(0, 0, -1)
	rollup, err := s.analyticsService.RollupDay(ctx, day)
	if err != nil {
		log.Printf("❌ Daily rollup for %s failed: %v", day.Format("2006-01-02"), err)
		return
	}
	log.Printf("📊 Daily rollup %s: $%.2f invested across %d investments",
		rollup.Date, rollup.InvestedAmount, rollup.InvestmentsCount)
}

// Start begins executing registered jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Println("📅 Background scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
