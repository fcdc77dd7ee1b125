// Package job runs periodic background work.
package job

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Locker is the cross-process guard. The release func must not fail the run.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, bool, error)
}

// Task is one invocation of the job.
type Task func(ctx context.Context) error

// Scheduler fires Task on a fixed interval. A tick that finds a run in
// progress, here or in another process holding the lock, is skipped.
type Scheduler struct {
	name     string
	interval time.Duration
	lockTTL  time.Duration
	locker   Locker
	task     Task
	log      *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

func NewScheduler(name string, interval, lockTTL time.Duration, locker Locker, task Task, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		lockTTL:  lockTTL,
		locker:   locker,
		task:     task,
		log:      log.With(zap.String("job", name)),
	}
}

// Start runs until ctx is done. Each tick is handled in its own goroutine so
// a slow run never delays the ticker.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.interval), zap.Duration("lock_ttl", s.lockTTL))
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.Tick(ctx)
			}()
		}
	}
}

// Tick runs the task once unless a run is already in progress. It reports
// whether the task ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("previous run still in progress, skipping tick")
		return false
	}
	defer s.running.Store(false)

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, s.name, s.lockTTL)
		if err != nil {
			s.log.Warn("acquire lock failed, skipping tick", zap.Error(err))
			return false
		}
		if !ok {
			s.log.Debug("lock held elsewhere, skipping tick")
			return false
		}
		defer func() {
			//ctxが終わっていても解放はする
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(rctx); err != nil {
				s.log.Warn("release lock failed", zap.Error(err))
			}
		}()
	}

	//ロックの期限を超えて走らない
	runCtx := ctx
	if s.lockTTL > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.lockTTL)
		defer cancel()
	}

	start := time.Now()
	if err := s.task(runCtx); err != nil {
		s.log.Error("run failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return true
	}
	s.log.Debug("run finished", zap.Duration("elapsed", time.Since(start)))
	return true
}
