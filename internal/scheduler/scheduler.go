package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/models"
	"tradecontrol/internal/trading"
	"tradecontrol/internal/ws"
)

// tradeEventsQueue receives resolved trade events when a message broker is
// configured.
const tradeEventsQueue = "trade_events"

// ErrInvalidInterval is returned for an unrecognized trade interval.
var ErrInvalidInterval = errors.New("unrecognized trade interval")

// cronSpecs aligns ticks to wall-clock boundaries rather than a per-bot
// phase.
var cronSpecs = map[string]string{
	"1min":  "* * * * *",
	"5min":  "*/5 * * * *",
	"10min": "*/10 * * * *",
	"30min": "*/30 * * * *",
	"1hour": "0 * * * *",
}

// CronSpecFor translates a trade interval into its cron expression.
func CronSpecFor(interval string) (string, error) {
	spec, ok := cronSpecs[interval]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
	return spec, nil
}

// Journal is the durable-state surface the scheduler depends on.
type Journal interface {
	CreateTradeLog(ctx context.Context, trade *models.TradeLog) error
	ResolveTradeLog(ctx context.Context, id uint, terminal *models.TradeLog) error
	GetTradeLog(ctx context.Context, id uint) (*models.TradeLog, error)
	GetConfigByID(ctx context.Context, id uint) (*models.TradeConfig, error)
	GetRunningStatuses(ctx context.Context) ([]models.BotStatus, error)
	UpsertBotStatus(ctx context.Context, status *models.BotStatus) error
	UpdateBotStatus(ctx context.Context, userID string, network chains.Network, updates map[string]interface{}) error
	ApplyTradeResolution(ctx context.Context, userID string, network chains.Network, amountUsd decimal.Decimal, success bool, nextTradeAt *time.Time) error
	CreateSystemLog(ctx context.Context, entry *models.SystemLog) error
}

// Trader executes one trade and returns a typed outcome.
type Trader interface {
	ExecuteTrade(ctx context.Context, params trading.Params) trading.Outcome
}

// Notifier fans events out to a user's connected listeners.
type Notifier interface {
	Broadcast(userID string, event interface{})
}

// Publisher pushes audit events to the message broker. May be nil.
type Publisher interface {
	Publish(queueName string, message interface{}) error
}

type key struct {
	userID  string
	network chains.Network
}

type entry struct {
	configID uint
	entryID  cron.EntryID
	schedule cron.Schedule
	inFlight atomic.Bool
}

// Scheduler owns the in-memory set of active schedules keyed by
// (user, network). The set is authoritative for "is a tick scheduled"; the
// durable BotStatus rows are reconciled against it on process start.
type Scheduler struct {
	cron      *cron.Cron
	journal   Journal
	trader    Trader
	notifier  Notifier
	publisher Publisher

	mu      sync.Mutex
	entries map[key]*entry
}

func New(journal Journal, trader Trader, notifier Notifier, publisher Publisher) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		journal:   journal,
		trader:    trader,
		notifier:  notifier,
		publisher: publisher,
		entries:   make(map[key]*entry),
	}
}

// Start begins firing scheduled ticks.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels all timers. In-flight ticks finish and write their terminal
// logs; the next process reconciles from BotStatus.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.mu.Lock()
	s.entries = make(map[key]*entry)
	s.mu.Unlock()
}

// IsRunning reports whether a tick is currently scheduled for the key.
func (s *Scheduler) IsRunning(userID string, network chains.Network) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key{userID: userID, network: network}]
	return ok
}

// StartBot installs the recurring task for a config. A bot already running
// on the same (user, network) is cleanly restarted: the prior timer is
// cancelled before the new one is installed.
func (s *Scheduler) StartBot(ctx context.Context, userID string, cfg *models.TradeConfig) error {
	spec, err := CronSpecFor(cfg.TradeInterval)
	if err != nil {
		return err
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	network := chains.Network(cfg.Network)
	k := key{userID: userID, network: network}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[k]; ok {
		s.cron.Remove(existing.entryID)
		delete(s.entries, k)
	}

	next := schedule.Next(time.Now())
	configID := cfg.ID
	if err := s.journal.UpsertBotStatus(ctx, &models.BotStatus{
		UserID:         userID,
		Network:        cfg.Network,
		IsRunning:      true,
		ActiveConfigID: &configID,
		NextTradeAt:    &next,
	}); err != nil {
		return fmt.Errorf("persist bot status: %w", err)
	}

	cfgCopy := *cfg
	e := &entry{configID: cfg.ID, schedule: schedule}
	entryID, err := s.cron.AddFunc(spec, func() {
		s.runTick(userID, &cfgCopy, e)
	})
	if err != nil {
		return fmt.Errorf("install cron entry: %w", err)
	}
	e.entryID = entryID
	s.entries[k] = e

	s.audit(ctx, userID, cfg.Network, "INFO", fmt.Sprintf("bot started with config %d, interval %s", cfg.ID, cfg.TradeInterval))
	s.notifier.Broadcast(userID, ws.NewBotStatus(cfg.Network, true))
	log.Infof("bot started for user %s on %s (interval %s)", userID, cfg.Network, cfg.TradeInterval)
	return nil
}

// StopBot cancels the scheduled task if present and persists the stopped
// status. Idempotent; an in-flight tick is not cancelled.
func (s *Scheduler) StopBot(ctx context.Context, userID string, network chains.Network) error {
	k := key{userID: userID, network: network}

	s.mu.Lock()
	if existing, ok := s.entries[k]; ok {
		s.cron.Remove(existing.entryID)
		delete(s.entries, k)
	}
	s.mu.Unlock()

	if err := s.journal.UpdateBotStatus(ctx, userID, network, map[string]interface{}{
		"is_running":    false,
		"next_trade_at": nil,
	}); err != nil {
		return fmt.Errorf("persist bot status: %w", err)
	}

	s.audit(ctx, userID, string(network), "INFO", "bot stopped")
	s.notifier.Broadcast(userID, ws.NewBotStatus(string(network), false))
	log.Infof("bot stopped for user %s on %s", userID, network)
	return nil
}

// Reconcile re-installs timers for every status row marked running. Rows
// whose active config is missing or no longer active are forced to stopped.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	statuses, err := s.journal.GetRunningStatuses(ctx)
	if err != nil {
		return fmt.Errorf("load running statuses: %w", err)
	}

	for _, status := range statuses {
		network := chains.Network(status.Network)

		var cfg *models.TradeConfig
		if status.ActiveConfigID != nil {
			cfg, err = s.journal.GetConfigByID(ctx, *status.ActiveConfigID)
			if err != nil {
				return fmt.Errorf("load config %d: %w", *status.ActiveConfigID, err)
			}
		}
		if cfg == nil || !cfg.IsActive {
			log.Warnf("bot status for user %s on %s references a missing config, forcing stopped", status.UserID, status.Network)
			if err := s.journal.UpdateBotStatus(ctx, status.UserID, network, map[string]interface{}{
				"is_running":    false,
				"next_trade_at": nil,
			}); err != nil {
				return fmt.Errorf("force-stop status: %w", err)
			}
			continue
		}

		if err := s.StartBot(ctx, status.UserID, cfg); err != nil {
			log.Errorf("reconcile: restart bot for user %s on %s: %v", status.UserID, status.Network, err)
		}
	}
	return nil
}

// runTick is the recurring task body. Ticks that would overlap a still
// running one for the same key are skipped, not queued.
func (s *Scheduler) runTick(userID string, cfg *models.TradeConfig, e *entry) {
	if !e.inFlight.CompareAndSwap(false, true) {
		log.Warnf("skipping tick for user %s on %s: previous tick still executing", userID, cfg.Network)
		return
	}
	defer e.inFlight.Store(false)

	ctx := context.Background()
	network := chains.Network(cfg.Network)

	configID := cfg.ID
	trade := &models.TradeLog{
		UserID:       userID,
		ConfigID:     &configID,
		Network:      cfg.Network,
		Dex:          network.DefaultDex(),
		TokenAddress: cfg.ContractAddress,
		TradeType:    models.TradeTypeAutomated,
		AmountUsd:    cfg.TradeAmountUsd,
	}
	if err := s.journal.CreateTradeLog(ctx, trade); err != nil {
		log.Errorf("create trade log for user %s on %s: %v", userID, cfg.Network, err)
		return
	}

	outcome := s.executeGuarded(ctx, userID, cfg)
	s.resolveTick(ctx, userID, cfg, trade.ID, outcome, e)
}

// executeGuarded runs the trade and converts a panic into a failed outcome
// so the pending log row is always resolved.
func (s *Scheduler) executeGuarded(ctx context.Context, userID string, cfg *models.TradeConfig) (outcome trading.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("trade execution panicked for user %s on %s: %v", userID, cfg.Network, r)
			outcome = trading.Outcome{
				Dex:          chains.Network(cfg.Network).DefaultDex(),
				Kind:         trading.KindAdapterError,
				ErrorMessage: fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	return s.trader.ExecuteTrade(ctx, trading.Params{
		UserID:       userID,
		Network:      chains.Network(cfg.Network),
		TokenAddress: cfg.ContractAddress,
		DexVersion:   cfg.DexVersion,
		AmountUsd:    cfg.TradeAmountUsd,
		SlippagePct:  cfg.SlippageTolerance,
		MaxGasRatio:  cfg.MaxGasRatio,
	})
}

func (s *Scheduler) resolveTick(ctx context.Context, userID string, cfg *models.TradeConfig, tradeID uint, outcome trading.Outcome, e *entry) {
	terminal := trading.TerminalLog(outcome)
	if err := s.journal.ResolveTradeLog(ctx, tradeID, terminal); err != nil {
		log.Errorf("resolve trade log %d: %v", tradeID, err)
	}

	next := e.schedule.Next(time.Now())
	if err := s.journal.ApplyTradeResolution(ctx, userID, chains.Network(cfg.Network), cfg.TradeAmountUsd, outcome.Success, &next); err != nil {
		log.Errorf("advance bot status for user %s on %s: %v", userID, cfg.Network, err)
	}

	resolved, err := s.journal.GetTradeLog(ctx, tradeID)
	if err != nil {
		log.Errorf("reload trade log %d: %v", tradeID, err)
		resolved = nil
	}
	s.notifier.Broadcast(userID, ws.NewTrade(resolved))
	s.notifier.Broadcast(userID, ws.NewBotStatus(cfg.Network, true))

	if s.publisher != nil {
		if err := s.publisher.Publish(tradeEventsQueue, resolved); err != nil {
			log.Warnf("publish trade event: %v", err)
		}
	}

	if outcome.Success {
		log.Infof("scheduled trade succeeded for user %s on %s: tx %s", userID, cfg.Network, outcome.TxHash)
	} else {
		log.Warnf("scheduled trade failed for user %s on %s: %s", userID, cfg.Network, outcome.ErrorMessage)
	}
}

func (s *Scheduler) audit(ctx context.Context, userID, network, level, message string) {
	if err := s.journal.CreateSystemLog(ctx, &models.SystemLog{
		UserID:  userID,
		Network: network,
		Level:   level,
		Message: message,
		Module:  "scheduler",
	}); err != nil {
		log.Warnf("write system log: %v", err)
	}
}
