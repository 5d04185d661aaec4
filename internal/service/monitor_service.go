package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retail-banking-core/config"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MonitorServiceImpl implements ports.MonitorService. It runs three
// detectors over the recent window and sends at most one alert per run.
type MonitorServiceImpl struct {
	txRepo    ports.TransactionRepository
	sender    ports.NotificationSender
	window    time.Duration
	threshold decimal.Decimal
	frequent  int
	recipient string
	log       zerolog.Logger
	now       func() time.Time
}

// NewMonitorService creates a new MonitorServiceImpl. It fails when the
// configured large-transaction threshold is not a positive decimal.
func NewMonitorService(txRepo ports.TransactionRepository, sender ports.NotificationSender, cfg config.MonitorConfig, log zerolog.Logger) (*MonitorServiceImpl, error) {
	threshold, err := decimal.NewFromString(cfg.LargeThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse monitor.large_threshold: %w", err)
	}
	if !threshold.IsPositive() {
		return nil, fmt.Errorf("monitor.large_threshold must be positive, got %s", cfg.LargeThreshold)
	}
	if cfg.WindowHours <= 0 || cfg.FrequentCount <= 0 {
		return nil, fmt.Errorf("monitor window_hours and frequent_count must be positive")
	}

	return &MonitorServiceImpl{
		txRepo:    txRepo,
		sender:    sender,
		window:    time.Duration(cfg.WindowHours) * time.Hour,
		threshold: threshold,
		frequent:  cfg.FrequentCount,
		recipient: cfg.AlertRecipient,
		log:       log.With().Str("component", "monitor").Logger(),
		now:       time.Now,
	}, nil
}

// Scan runs every detector over [now-window, now) and returns the findings.
func (s *MonitorServiceImpl) Scan(ctx context.Context) ([]domain.Finding, error) {
	since := s.now().Add(-s.window)
	var findings []domain.Finding

	large, err := s.txRepo.ListLargeSince(ctx, since, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("large transactions: %w", err)
	}
	for _, t := range large {
		findings = append(findings, domain.Finding{
			Kind:    domain.FindingLargeTransaction,
			Subject: t.ID.String(),
			Message: fmt.Sprintf("Large %s transaction %s of %s by user %s at %s",
				t.Type, t.ID, t.Amount.StringFixed(2), t.UserID, t.CreatedAt.UTC().Format(time.RFC3339)),
		})
	}

	active, err := s.txRepo.CountByUserSince(ctx, since, s.frequent)
	if err != nil {
		return nil, fmt.Errorf("frequent activity: %w", err)
	}
	for _, a := range active {
		findings = append(findings, domain.Finding{
			Kind:    domain.FindingFrequentActivity,
			Subject: a.UserID.String(),
			Message: fmt.Sprintf("User %s made %d transactions in the last %s",
				a.Username, a.Count, s.window),
		})
	}

	flows, err := s.txRepo.NetFlowsSince(ctx, since, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("unbalanced flows: %w", err)
	}
	for _, f := range flows {
		findings = append(findings, domain.Finding{
			Kind:    domain.FindingUnbalancedFlow,
			Subject: f.AccountNumber,
			Message: fmt.Sprintf("Account %s sent %s and received %s (net %s)",
				f.AccountNumber, f.Sent.StringFixed(2), f.Received.StringFixed(2), f.Net().StringFixed(2)),
		})
	}

	return findings, nil
}

// Run scans and alerts. A failed alert is logged; the finding count is
// returned either way.
func (s *MonitorServiceImpl) Run(ctx context.Context) (int, error) {
	findings, err := s.Scan(ctx)
	if err != nil {
		return 0, err
	}
	if len(findings) == 0 {
		s.log.Info().Msg("no suspicious activity found")
		return 0, nil
	}

	lines := make([]string, len(findings))
	for i, f := range findings {
		lines[i] = fmt.Sprintf("[%s] %s", f.Kind, f.Message)
	}

	err = s.sender.Notify(ctx, domain.NotificationSuspiciousActivity, s.recipient, map[string]string{
		"count":        strconv.Itoa(len(findings)),
		"window_hours": strconv.Itoa(int(s.window.Hours())),
		"report":       strings.Join(lines, "\n"),
	})
	if err != nil {
		s.log.Error().Err(err).Int("findings", len(findings)).Msg("failed to send suspicious activity alert")
	} else {
		s.log.Warn().Int("findings", len(findings)).Msg("suspicious activity alert sent")
	}
	return len(findings), nil
}
