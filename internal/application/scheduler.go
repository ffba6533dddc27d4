package application

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	log       *zap.Logger
	use       *WatchUseCase
	every     time.Duration
	pauseFile string

	mu        sync.RWMutex
	regions   []string
	pipelines []string
}

func NewScheduler(l *zap.Logger, u *WatchUseCase, regions, pipelines []string, every time.Duration, pauseFile string) *Scheduler {
	return &Scheduler{
		log: l, use: u, regions: regions, pipelines: pipelines, every: every, pauseFile: pauseFile,
	}
}

func (s *Scheduler) UpdateTargets(regions, pipelines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = regions
	s.pipelines = pipelines
	s.log.Info("config reloaded", zap.Int("regions", len(regions)), zap.Int("pipelines", len(pipelines)))
}

func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.every)
	defer t.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.isPaused() {
		s.log.Debug("paused: skipping poll")
		return
	}
	s.runAll(ctx)
}

func (s *Scheduler) isPaused() bool {
	if s.pauseFile == "" {
		return false
	}
	_, err := os.Stat(s.pauseFile)
	return err == nil
}

func (s *Scheduler) targets() ([]string, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regions := make([]string, len(s.regions))
	copy(regions, s.regions)
	pipelines := make([]string, len(s.pipelines))
	copy(pipelines, s.pipelines)
	return regions, pipelines
}

func (s *Scheduler) runAll(ctx context.Context) {
	regions, pipelines := s.targets()
	if len(regions) == 0 || len(pipelines) == 0 {
		s.log.Warn("nothing to poll")
		return
	}

	changed, err := s.use.PollOnce(ctx, regions, pipelines)
	if err != nil {
		s.log.Warn("poll failed",
			zap.Strings("regions", regions),
			zap.Int("pipelines", len(pipelines)),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("poll done", zap.Int("changed", changed))
}
