package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/adventbot/pkg/models"
)

// DefaultSweepInterval is coarse enough to stay cheap and fine enough
// that an unlock is never visibly late.
const DefaultSweepInterval = 5 * time.Minute

// SweepIntervalFromEnv reads SWEEP_MINUTES, falling back to the default.
func SweepIntervalFromEnv() time.Duration {
	v := os.Getenv("SWEEP_MINUTES")
	if v == "" {
		return DefaultSweepInterval
	}
	minutes, err := strconv.Atoi(v)
	if err != nil || minutes <= 0 {
		log.Printf("Warning: invalid SWEEP_MINUTES=%q, using default", v)
		return DefaultSweepInterval
	}
	return time.Duration(minutes) * time.Minute
}

// Store is the persistence contract the sweep depends on
type Store interface {
	GetAll() ([]models.UserProgress, error)
	UpdateUnlock(userID int64, openedDay int, nextUnlockAt string) error
}

// Notifier delivers the out-of-band unlock notification
type Notifier interface {
	NotifyDayUnlocked(userID int64, day int) error
}

// Config holds the unlock schedule parameters
type Config struct {
	TotalDays     int
	SweepInterval time.Duration
	Location      *time.Location
	UnlockHour    int
	UnlockMinute  int
}

// Scheduler runs the recurring day-unlock sweep
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Store
	notifier  Notifier
	cfg       Config
	now       func() time.Time
}

// New creates a new scheduler instance
func New(store Store, notifier Notifier, cfg Config) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		store:     store,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Start begins the recurring sweep in the background
func (s *Scheduler) Start() {
	s.scheduler.Every(s.cfg.SweepInterval).Do(s.Sweep)
	s.scheduler.StartAsync()
}

// Stop terminates the recurring sweep
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep runs one idempotent unlock pass over all user records
func (s *Scheduler) Sweep() {
	users, err := s.store.GetAll()
	if err != nil {
		log.Printf("Error loading users for unlock sweep: %v", err)
		return
	}
	now := s.now()
	for i := range users {
		// one bad record must never halt unlocking for the others
		s.sweepUser(&users[i], now)
	}
}

// sweepUser advances a single due user by exactly one day. Unlocking
// is authoritative over notification: a failed send never rolls back
// or blocks the state advance.
func (s *Scheduler) sweepUser(user *models.UserProgress, now time.Time) {
	if user.OpenedDay >= s.cfg.TotalDays {
		return
	}

	due, err := time.Parse(time.RFC3339, user.NextUnlockAt)
	if err != nil {
		// self-heal a corrupted timestamp with a fresh future instant;
		// the user's schedule shifts but the sweep keeps working
		fresh := s.nextUnlockTime(now)
		log.Printf("User %d has unparseable next_unlock_at %q, resetting to %s", user.ID, user.NextUnlockAt, fresh.Format(time.RFC3339))
		if err := s.store.UpdateUnlock(user.ID, user.OpenedDay, fresh.Format(time.RFC3339)); err != nil {
			log.Printf("Error resetting unlock for user %d: %v", user.ID, err)
		}
		return
	}

	if due.After(now) {
		return
	}

	newDay := user.OpenedDay + 1
	// +1 calendar day in the schedule's zone keeps the time-of-day
	// stable across DST transitions
	newDue := due.In(s.cfg.Location).AddDate(0, 0, 1)

	if err := s.store.UpdateUnlock(user.ID, newDay, newDue.Format(time.RFC3339)); err != nil {
		log.Printf("Error unlocking day %d for user %d: %v", newDay, user.ID, err)
		return
	}

	// best-effort, result ignored: the user may have blocked the bot
	_ = s.notifier.NotifyDayUnlocked(user.ID, newDay)
}

// nextUnlockTime returns tomorrow at the configured unlock time
func (s *Scheduler) nextUnlockTime(now time.Time) time.Time {
	tomorrow := now.In(s.cfg.Location).AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(),
		s.cfg.UnlockHour, s.cfg.UnlockMinute, 0, 0, s.cfg.Location)
}
