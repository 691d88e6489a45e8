package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/robfig/cron/v3"

	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/pkg/utils"
)

const (
	DefaultSpec     = "0 0 * * *"
	DefaultTimezone = "UTC"

	lockKey = "lock:expiration-sweep"
	lockTTL = 10 * time.Minute
)

// Sweeper is the work run on every tick.
type Sweeper interface {
	ProcessExpired(ctx context.Context) (*services.SweepResult, error)
}

// Locker is the subset of *redislock.Client the scheduler needs.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

type Option func(*ExpirationScheduler)

// WithSpec sets the standard five field cron expression.
func WithSpec(spec string) Option {
	return func(s *ExpirationScheduler) { s.spec = spec }
}

// WithTimezone sets the IANA zone the cron expression is evaluated in.
func WithTimezone(tz string) Option {
	return func(s *ExpirationScheduler) { s.timezone = tz }
}

// WithLocker makes every tick take a distributed lock first.
func WithLocker(l Locker) Option {
	return func(s *ExpirationScheduler) { s.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpirationScheduler) { s.now = now }
}

// ExpirationScheduler runs a Sweeper on a cron schedule and once at start.
// A tick that finds the previous one still running is skipped.
type ExpirationScheduler struct {
	sweeper  Sweeper
	locker   Locker
	spec     string
	timezone string
	now      func() time.Time

	mu       sync.Mutex
	cron     *cron.Cron
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	sweeping atomic.Bool
	lastRun  atomic.Pointer[time.Time]
}

// NewExpirationScheduler validates the schedule and timezone up front.
func NewExpirationScheduler(sweeper Sweeper, opts ...Option) (*ExpirationScheduler, error) {
	if sweeper == nil {
		return nil, errors.New("scheduler: sweeper is required")
	}
	s := &ExpirationScheduler{
		sweeper:  sweeper,
		spec:     DefaultSpec,
		timezone: DefaultTimezone,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := time.LoadLocation(s.timezone); err != nil {
		return nil, fmt.Errorf("scheduler: invalid timezone %q: %w", s.timezone, err)
	}
	if _, err := cron.ParseStandard(s.spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", s.spec, err)
	}
	return s, nil
}

// Start schedules the sweep and kicks off one immediate run. Calling Start
// on a running scheduler does nothing.
func (s *ExpirationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		utils.LogWarn("Expiration scheduler already running")
		return nil
	}

	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return fmt.Errorf("scheduler: invalid timezone %q: %w", s.timezone, err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.spec, func() { s.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("scheduler: scheduling %q: %w", s.spec, err)
	}
	c.Start()
	s.cron, s.cancel = c, cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick(runCtx)
	}()

	utils.LogInfo("Expiration scheduler started", map[string]interface{}{"spec": s.spec, "timezone": s.timezone})
	return nil
}

// Stop cancels in-flight work and waits for it to return.
func (s *ExpirationScheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	cancel()
	<-c.Stop().Done()
	s.wg.Wait()
	utils.LogInfo("Expiration scheduler stopped")
}

// IsRunning reports whether Start was called without a matching Stop.
func (s *ExpirationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// LastRun returns the start time of the last sweep that ran, or the zero time.
func (s *ExpirationScheduler) LastRun() time.Time {
	if t := s.lastRun.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

func (s *ExpirationScheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		utils.LogError(err, "Expiration scheduler: sweep failed")
	}
}

// RunOnce performs one sweep now. It returns a nil result when the sweep
// was skipped because another one holds the lock.
func (s *ExpirationScheduler) RunOnce(ctx context.Context) (*services.SweepResult, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		utils.LogDebug("Expiration sweep already in progress, skipping")
		return nil, nil
	}
	defer s.sweeping.Store(false)

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, lockKey, lockTTL, nil)
		switch {
		case errors.Is(err, redislock.ErrNotObtained):
			utils.LogDebug("Expiration sweep owned by another instance, skipping")
			return nil, nil
		case err != nil:
			utils.LogWarn("Could not obtain sweep lock, sweeping without it", map[string]interface{}{"error": err.Error()})
		default:
			defer func() {
				if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
					utils.LogWarn("Failed to release sweep lock", map[string]interface{}{"error": err.Error()})
				}
			}()
		}
	}

	started := s.now()
	s.lastRun.Store(&started)
	return s.sweeper.ProcessExpired(ctx)
}
