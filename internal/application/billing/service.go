// Package billing sells token packs and settles completed payments into
// ledger grants.
package billing

import (
	"context"

	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Pack is one purchasable token bundle.
type Pack struct {
	ID       string `json:"id"`
	Tokens   int64  `json:"tokens"`
	PriceUSD int64  `json:"price_usd_cents"`
}

// Packs in display order.
var Packs = []Pack{
	{ID: "TOKENS_1000", Tokens: 1000, PriceUSD: 1000},
	{ID: "TOKENS_3000", Tokens: 3000, PriceUSD: 2500},
}

// PackByID resolves a pack id.
func PackByID(id string) (Pack, error) {
	for _, p := range Packs {
		if p.ID == id {
			return p, nil
		}
	}
	return Pack{}, errors.Newf(errors.ErrCodeUnknownPack, "unknown token pack %q", id)
}

// EventTypeCheckoutCompleted is the only webhook event type that settles.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// WebhookEvent is a verified payment processor notification.
type WebhookEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	AccountID string `json:"account_id"`
	PackID    string `json:"pack_id"`
}

// PaymentProcessor is the outbound payment collaborator.
type PaymentProcessor interface {
	// CreateCheckout opens a hosted checkout session and returns its redirect
	// URL and session id.
	CreateCheckout(ctx context.Context, accountID string, pack Pack) (url, sessionID string, err error)
}

// ProcessedEventRepository records settled webhook event ids.  A duplicate id
// must fail with ErrCodeConflict so Settle can short-circuit redeliveries.
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, eventID, sessionID string) error
}

// Service is the billing application service.
type Service struct {
	ledger    *ledger.Service
	processor PaymentProcessor
	processed ProcessedEventRepository
	log       logging.Logger
}

// NewService wires the billing service.
func NewService(ledgerSvc *ledger.Service, processor PaymentProcessor, processed ProcessedEventRepository, log logging.Logger) *Service {
	return &Service{
		ledger:    ledgerSvc,
		processor: processor,
		processed: processed,
		log:       log.Named("billing"),
	}
}

// Balance returns the account's current token balance.
func (s *Service) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.ledger.Balance(ctx, accountID)
}

// History returns the account's recent ledger transactions.
func (s *Service) History(ctx context.Context, accountID string, limit int) ([]*ledger.Transaction, error) {
	return s.ledger.History(ctx, accountID, limit)
}

// CreateCheckout opens a checkout session for one pack.
func (s *Service) CreateCheckout(ctx context.Context, accountID, packID string) (string, error) {
	pack, err := PackByID(packID)
	if err != nil {
		return "", err
	}
	url, sessionID, err := s.processor.CreateCheckout(ctx, accountID, pack)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeCheckoutFailed, "checkout session creation failed")
	}
	s.log.Info("checkout session created",
		logging.String("account_id", accountID),
		logging.String("pack", pack.ID),
		logging.String("session_id", sessionID),
	)
	return url, nil
}

// Settle applies one verified webhook event.  The grant's idempotency key
// (derived from the event id) is the settlement guard: a duplicate delivery
// replays the original grant and returns success.  The processed-event record
// is written after the grant, so a crash between the two leaves a retriable
// insert rather than a swallowed credit.  Unknown event types are acknowledged
// and ignored.
func (s *Service) Settle(ctx context.Context, ev WebhookEvent) error {
	if ev.Type != EventTypeCheckoutCompleted {
		s.log.Debug("ignoring webhook event", logging.String("type", ev.Type))
		return nil
	}
	pack, err := PackByID(ev.PackID)
	if err != nil {
		return err
	}
	if ev.AccountID == "" {
		return errors.New(errors.ErrCodeValidation, "webhook event carries no account id")
	}

	_, err = s.ledger.Grant(ctx, ev.AccountID, pack.Tokens,
		"purchase_"+pack.ID, "", "purchase:"+ev.ID)
	if err != nil {
		return err
	}

	if err := s.processed.MarkProcessed(ctx, ev.ID, ev.SessionID); err != nil {
		if errors.IsCode(err, errors.ErrCodeConflict) {
			s.log.Info("duplicate webhook event ignored", logging.String("event_id", ev.ID))
			return nil
		}
		return err
	}
	s.log.Info("payment settled",
		logging.String("event_id", ev.ID),
		logging.String("account_id", ev.AccountID),
		logging.String("pack", pack.ID),
		logging.Int64("tokens", pack.Tokens),
	)
	return nil
}
