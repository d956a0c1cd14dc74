package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vol-scanner/internal/alerting"
	"vol-scanner/internal/config"
	"vol-scanner/internal/scan"
	"vol-scanner/internal/scheduler"
	"vol-scanner/internal/storage"
)

// Scanner runs one full universe scan.
type Scanner interface {
	Run(ctx context.Context, universe []string, asof time.Time) ([]scan.ScoreEntry, error)
}

// Service orchestrates scheduled scans, persistence, and alerting.
type Service struct {
	scheduler  *scheduler.Scheduler
	scanner    Scanner
	universe   storage.UniverseStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	minScore float64
	channels []string
	alertsOn bool
	locker   storage.AdvisoryLocker
	lockKey  int64
}

// New constructs the scan service.
func New(cfg *config.Config, sched *scheduler.Scheduler, scanner Scanner, universe storage.UniverseStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := universe.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:  sched,
		scanner:    scanner,
		universe:   universe,
		alertStore: alertStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
		minScore:   cfg.Alerting.MinScore,
		channels:   cfg.Alerting.Channels,
		alertsOn:   cfg.Alerting.Enabled,
		locker:     locker,
		lockKey:    cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the aligned scan loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessBucket)
}

// ProcessBucket executes one scheduled scan tick.
func (s *Service) ProcessBucket(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip bucket because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeBucket(ctx, bucket)
}

func (s *Service) executeBucket(ctx context.Context, bucket time.Time) error {
	tickers, err := s.universe.ListUniverse(ctx)
	if err != nil {
		return fmt.Errorf("list universe: %w", err)
	}
	if len(tickers) == 0 {
		s.logger.Warn().Msg("universe is empty; refresh it before scanning")
		return nil
	}

	entries, err := s.scanner.Run(ctx, tickers, bucket)
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	scored := 0
	for _, e := range entries {
		if e.Scored() {
			scored++
		}
	}
	s.logger.Info().Time("bucket", bucket).
		Int("entries", len(entries)).
		Int("scored", scored).
		Msg("scheduled scan recorded")

	if s.alertsOn && s.notifier != nil {
		s.dispatchAlerts(ctx, bucket, entries)
	}

	return nil
}

func (s *Service) dispatchAlerts(ctx context.Context, bucket time.Time, entries []scan.ScoreEntry) {
	for _, e := range entries {
		if !e.Scored() || *e.Score < s.minScore {
			continue
		}

		if s.alertStore != nil {
			record := storage.ScanAlert{
				Ticker:   e.Ticker,
				AsOfDate: bucket,
				IV:       *e.IV,
				RV:       *e.RV,
				Score:    *e.Score,
				MinScore: s.minScore,
				Channels: s.channels,
			}
			if _, err := s.alertStore.InsertScanAlert(ctx, record); err != nil {
				s.logger.Error().Err(err).Str("ticker", e.Ticker).Msg("failed to persist alert record")
			}
		}

		note := alerting.Notification{
			Ticker:       e.Ticker,
			AsOfDate:     bucket,
			IV:           *e.IV,
			RV:           *e.RV,
			Gap:          *e.Gap,
			Score:        *e.Score,
			MinScore:     s.minScore,
			OptionSymbol: e.Symbol,
			Channels:     s.channels,
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("ticker", e.Ticker).Msg("failed to dispatch alert")
		}
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
