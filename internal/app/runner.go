// internal/app/runner.go
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/pump-core/internal/admission"
	"github.com/rovshanmuradov/pump-core/internal/config"
	"github.com/rovshanmuradov/pump-core/internal/engine"
	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/export"
	"github.com/rovshanmuradov/pump-core/internal/graduation"
	"github.com/rovshanmuradov/pump-core/internal/launch"
	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/logger"
	"github.com/rovshanmuradov/pump-core/internal/monitor"
	"github.com/rovshanmuradov/pump-core/internal/platform"
	"github.com/rovshanmuradov/pump-core/internal/ratelimit"
	"github.com/rovshanmuradov/pump-core/internal/storage"
	"github.com/rovshanmuradov/pump-core/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

// Runner собирает все компоненты движка и управляет их жизненным циклом.
type Runner struct {
	logger   *logger.Logger
	config   *config.Config
	bus      *events.Bus
	registry *ledger.Registry
	platform *platform.Config
	service  *engine.Service
	locks    *graduation.LockBook
	archiver *storage.Archiver
	history  *monitor.History

	shutdownCh chan os.Signal
}

// NewRunner создаёт пустой runner; компоненты собираются в Initialize.
func NewRunner() *Runner {
	return &Runner{shutdownCh: make(chan os.Signal, 1)}
}

// Initialize загружает конфигурацию и связывает компоненты движка.
func (r *Runner) Initialize(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	r.config = cfg

	log, err := logger.New(&logger.Config{
		LogFile:     "engine.log",
		Level:       cfg.Log.Level,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.Log.Debug,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	r.logger = log

	r.bus = events.NewBus(log.Logger, cfg.EventBuffer)
	r.registry = ledger.NewRegistry(log.Logger)

	platformCfg, err := platform.New(platform.Options{
		Authority:     cfg.AuthorityKey(),
		Treasury:      cfg.TreasuryKey(),
		FeeRateBps:    cfg.Platform.FeeRateBps,
		GraduationFee: cfg.Platform.GraduationFee,
		Security:      cfg.SecurityParams(),
	}, r.bus, log.Logger)
	if err != nil {
		return fmt.Errorf("init platform: %w", err)
	}
	r.platform = platformCfg

	profiles := platform.NewProfiles()
	limiter := ratelimit.NewLimiter(log.Logger)

	adm := admission.NewController(platformCfg, profiles, limiter,
		cfg.RateLimit.TradeLimit, cfg.RateLimit.TradeWindow, log.Logger)
	executor := engine.NewExecutor(r.registry, adm, platformCfg, r.bus, log.Logger)
	r.service = engine.NewService(r.registry, platformCfg, profiles, executor,
		limiter, r.bus, log.Logger)

	r.locks = graduation.NewLockBook(log.Logger)
	gradManager := graduation.NewManager(r.registry, platformCfg, r.locks, r.bus, log.Logger).
		WithLock(cfg.Platform.LockDuration, cfg.Platform.LockVesting)
	r.service.SetGraduationHook(gradManager)

	r.history = monitor.NewHistory(cfg.HistorySize, log.Logger)
	r.history.Attach(r.bus)

	// Архив опционален: без postgres_url движок работает только в памяти
	if cfg.PostgresURL != "" {
		store, err := postgres.NewStorage(cfg.PostgresURL, log.Logger)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		if err := store.RunMigrations(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		r.archiver = storage.NewArchiver(store, log.Logger)
		r.archiver.Attach(r.bus)
		log.Info("Trade archive enabled")
	}

	log.Info("Engine initialized",
		zap.String("authority", cfg.Platform.Authority),
		zap.Uint64("fee_rate_bps", cfg.Platform.FeeRateBps))
	return nil
}

// Run сеет запуски из файла и работает до сигнала завершения.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	g, runCtx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	g.Go(func() error {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("Signal received", zap.String("signal", sig.String()))
			cancel()
			return nil
		case <-runCtx.Done():
			return nil
		}
	})

	if r.config.LaunchesFile != "" {
		launches, err := launch.Load(r.config.LaunchesFile)
		if err != nil {
			return fmt.Errorf("load launches: %w", err)
		}
		seeder := launch.NewSeeder(r.service, r.platform.Authority(), r.logger.Logger)
		seeder.Seed(runCtx, launches)
	}

	r.logger.Info("Engine running")
	if err := g.Wait(); err != nil {
		return err
	}

	return r.Shutdown()
}

// Shutdown останавливает шину событий и сбрасывает логи.
func (r *Runner) Shutdown() error {
	r.logger.Info("Engine shutting down")

	if r.archiver != nil {
		r.archiver.Detach()
	}
	r.history.Detach()

	// Отчёт сессии выгружается до остановки шины
	if r.config.ExportDir != "" {
		exporter := export.NewExporter(r.logger.Logger)
		if _, err := exporter.Export(r.history.Recent(0), export.Options{
			Format:    export.FormatJSON,
			OutputDir: r.config.ExportDir,
		}); err != nil {
			r.logger.Warn("Session export failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.bus.Shutdown(ctx); err != nil {
		r.logger.Warn("Event bus shutdown incomplete", zap.Error(err))
	}

	return r.logger.Sync()
}

// Service открывает торговый фасад для внешних обвязок.
func (r *Runner) Service() *engine.Service { return r.service }

// Platform открывает административный фасад.
func (r *Runner) Platform() *platform.Config { return r.platform }

// Registry открывает реестр леджеров (модерация токенов).
func (r *Runner) Registry() *ledger.Registry { return r.registry }

// Locks открывает книгу LP-замков.
func (r *Runner) Locks() *graduation.LockBook { return r.locks }

// History открывает историю сделок сессии.
func (r *Runner) History() *monitor.History { return r.history }
