package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coindeck/internal/alerting"
	"coindeck/internal/config"
	"coindeck/internal/domain"
	"coindeck/internal/market"
	"coindeck/internal/scheduler"
	"coindeck/internal/storage"
	"coindeck/internal/valuation"
)

// Service orchestrates quote polling, alert evaluation, and history capture.
// It owns the only mutable state in the system: the latest quote snapshot,
// swapped wholesale on every poll so readers always see one consistent book.
type Service struct {
	scheduler *scheduler.Scheduler
	fetcher   market.QuoteFetcher
	holdings  storage.HoldingStore
	alerts    storage.AlertStore
	events    storage.AlertEventStore
	history   storage.HistoryStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	currency string
	cooldown time.Duration
	alertsOn bool

	mu           sync.RWMutex
	book         domain.QuoteBook
	refreshedAt  time.Time
	lastNotified map[string]time.Time
}

// New constructs the poll service.
func New(cfg *config.Config, sched *scheduler.Scheduler, fetcher market.QuoteFetcher, holdings storage.HoldingStore, alerts storage.AlertStore, events storage.AlertEventStore, history storage.HistoryStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler:    sched,
		fetcher:      fetcher,
		holdings:     holdings,
		alerts:       alerts,
		events:       events,
		history:      history,
		notifier:     notifier,
		logger:       logger.With().Str("component", "poll_service").Logger(),
		currency:     cfg.Market.Currency,
		cooldown:     cfg.Alerting.Cooldown,
		alertsOn:     cfg.Alerting.Enabled,
		book:         domain.QuoteBook{},
		lastNotified: make(map[string]time.Time),
	}
}

// Run begins the polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Poll)
}

// Poll executes one refresh tick: fetch, swap, evaluate, record.
func (s *Service) Poll(ctx context.Context, tick time.Time) error {
	quotes, err := s.fetcher.FetchQuotes(ctx, s.currency)
	if err != nil {
		// An unreachable market API means "no fresh quotes"; the previous
		// book stays in place and the missing-quote policy covers readers.
		return fmt.Errorf("fetch quotes: %w", err)
	}

	book := domain.NewQuoteBook(quotes)
	s.swap(book, tick)

	s.logger.Info().Int("quotes", len(quotes)).Str("currency", s.currency).Msg("quote snapshot refreshed")

	if s.alertsOn {
		s.sweepAlerts(ctx, tick, book)
	}
	s.recordHistory(ctx, tick, book)
	return nil
}

// Book returns the latest consistent quote snapshot and its refresh time.
func (s *Service) Book() (domain.QuoteBook, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book, s.refreshedAt
}

// Currency returns the display currency the poller refreshes in.
func (s *Service) Currency() string {
	return s.currency
}

// QuotesFor serves quotes in a display currency. The poller's own currency
// comes from the cached book; any other currency is fetched on demand,
// mirroring the dashboard's refetch-on-currency-change behaviour.
func (s *Service) QuotesFor(ctx context.Context, currency string) (domain.QuoteBook, time.Time, error) {
	if currency == "" || currency == s.currency {
		book, at := s.Book()
		return book, at, nil
	}
	quotes, err := s.fetcher.FetchQuotes(ctx, currency)
	if err != nil {
		return nil, time.Time{}, err
	}
	return domain.NewQuoteBook(quotes), time.Now().UTC(), nil
}

func (s *Service) swap(book domain.QuoteBook, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book = book
	s.refreshedAt = at
}

// sweepAlerts evaluates every active rule against the fresh book and
// dispatches notifications for triggered ones, at most once per cooldown
// window per rule.
func (s *Service) sweepAlerts(ctx context.Context, tick time.Time, book domain.QuoteBook) {
	if s.alerts == nil {
		return
	}

	rules, err := s.alerts.ListActiveAlerts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list active alerts")
		return
	}

	for _, rule := range rules {
		if alerting.Evaluate(rule, book) != alerting.StatusTriggered {
			continue
		}
		if last, ok := s.lastNotified[rule.ID]; ok && tick.Sub(last) < s.cooldown {
			continue
		}

		quote, _ := book.Lookup(rule.CoinID)

		if s.events != nil {
			event := storage.AlertEvent{
				RuleID:       rule.ID,
				UserID:       rule.UserID,
				CoinID:       rule.CoinID,
				Condition:    rule.Condition,
				TargetPrice:  rule.TargetPrice,
				CurrentPrice: quote.CurrentPrice,
				Currency:     s.currency,
			}
			if _, err := s.events.InsertAlertEvent(ctx, event); err != nil {
				s.logger.Error().Err(err).Str("rule", rule.ID).Msg("failed to persist alert event")
			}
		}

		if s.notifier != nil {
			note := alerting.Notification{
				RuleID:       rule.ID,
				CoinID:       rule.CoinID,
				CoinName:     rule.Name,
				Symbol:       rule.Symbol,
				Condition:    string(rule.Condition),
				TargetPrice:  rule.TargetPrice,
				CurrentPrice: quote.CurrentPrice,
				Currency:     s.currency,
				At:           tick,
			}
			if err := s.notifier.Notify(ctx, note); err != nil {
				s.logger.Error().Err(err).Str("rule", rule.ID).Msg("failed to dispatch alert")
				continue
			}
		}

		s.lastNotified[rule.ID] = tick
	}
}

// recordHistory appends one valuation point per user holding anything.
func (s *Service) recordHistory(ctx context.Context, tick time.Time, book domain.QuoteBook) {
	if s.history == nil || s.holdings == nil {
		return
	}

	all, err := s.holdings.ListAllHoldings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list holdings for history")
		return
	}

	byUser := make(map[string][]domain.Holding)
	for _, h := range all {
		byUser[h.UserID] = append(byUser[h.UserID], h)
	}

	for userID, holdings := range byUser {
		snap := valuation.Compute(holdings, book, s.currency)
		point := domain.HistoryPoint{
			UserID:     userID,
			Currency:   s.currency,
			TotalValue: snap.TotalValue,
			RecordedAt: tick,
		}
		if err := s.history.InsertHistoryPoint(ctx, point); err != nil {
			s.logger.Error().Err(err).Str("user", userID).Msg("failed to record history point")
		}
	}
}
