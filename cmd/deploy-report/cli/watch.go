package cli

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/davarch/deploy-report/internal/application"
	"github.com/davarch/deploy-report/internal/infrastructure/cache_fs"
	"github.com/davarch/deploy-report/internal/infrastructure/config"
	"github.com/davarch/deploy-report/internal/infrastructure/logging"
	"github.com/davarch/deploy-report/internal/infrastructure/notify_libnotify"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll periodically, keep a JSON snapshot and notify on status changes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New(verbose)
		defer func() { _ = log.Sync() }()

		cfg, err := loadConfig()
		if err != nil {
			log.Fatal("config", zap.Error(err))
		}

		report := application.NewReportUseCase(log, newFactory(cfg), reportOptions(cfg))
		note := notify_libnotify.NewSoft(10 * time.Second)
		cache := cache_fs.New(cfg.Watch.SnapshotPath)

		uc := application.NewWatchUseCase(report, note, cache)
		sched := application.NewScheduler(log, uc, cfg.Report.Regions, cfg.EnabledPipelines(), cfg.Watch.Interval, cfg.Watch.PauseFile)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		watchAndReload(ctx, cfgPath, log, sched)

		log.Info("start",
			zap.String("version", version),
			zap.Strings("regions", cfg.Report.Regions),
			zap.Int("pipelines", len(cfg.EnabledPipelines())),
			zap.Duration("every", cfg.Watch.Interval),
			zap.String("snapshot", cfg.Watch.SnapshotPath),
			zap.String("pause_file", cfg.Watch.PauseFile),
		)
		sched.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchAndReload feeds config file edits into the scheduler. Changes to
// AWS settings or the deploy stage need a restart.
func watchAndReload(ctx context.Context, cfgPath string, log *zap.Logger, sched *application.Scheduler) {
	if cfgPath == "" {
		return
	}

	dir := filepath.Dir(cfgPath)
	base := filepath.Base(cfgPath)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify init failed", zap.Error(err))
		return
	}
	if err := w.Add(dir); err != nil {
		log.Warn("fsnotify add dir failed", zap.String("dir", dir), zap.Error(err))
		_ = w.Close()
		return
	}

	reload := func() {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Warn("config reload failed", zap.Error(err))
			return
		}
		applyFlags(&cfg)
		if err := cfg.Validate(); err != nil {
			log.Warn("config reload ignored", zap.Error(err))
			return
		}
		sched.UpdateTargets(cfg.Report.Regions, cfg.EnabledPipelines())
	}

	go func() {
		defer func() { _ = w.Close() }()

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.AfterFunc(300*time.Millisecond, reload)
				} else {
					timer.Reset(300 * time.Millisecond)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()
}
