package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/application/billing"
	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/internal/infrastructure/memory"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

type fakeProcessor struct {
	err error
}

func (p *fakeProcessor) CreateCheckout(_ context.Context, accountID string, pack billing.Pack) (string, string, error) {
	if p.err != nil {
		return "", "", p.err
	}
	return "https://pay.invalid/session/" + pack.ID, "sess_" + accountID, nil
}

func newService(t *testing.T) (*billing.Service, *ledger.Service) {
	t.Helper()
	log := logging.NewNopLogger()
	ledgerSvc := ledger.NewService(memory.NewLedgerRepository(), log)
	svc := billing.NewService(ledgerSvc, &fakeProcessor{}, memory.NewProcessedEventRepository(), log)
	return svc, ledgerSvc
}

func completedEvent(id string) billing.WebhookEvent {
	return billing.WebhookEvent{
		ID:        id,
		Type:      billing.EventTypeCheckoutCompleted,
		SessionID: "sess_1",
		AccountID: "acct-1",
		PackID:    "TOKENS_1000",
	}
}

func TestSettleGrantsTokens(t *testing.T) {
	ctx := context.Background()
	svc, ledgerSvc := newService(t)

	require.NoError(t, svc.Settle(ctx, completedEvent("evt_1")))

	balance, err := ledgerSvc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	history, err := ledgerSvc.History(ctx, "acct-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ledger.KindGrant, history[0].Kind)
	assert.Equal(t, "purchase_TOKENS_1000", history[0].Reason)
}

func TestSettleDuplicateEventIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, ledgerSvc := newService(t)

	require.NoError(t, svc.Settle(ctx, completedEvent("evt_1")))
	require.NoError(t, svc.Settle(ctx, completedEvent("evt_1")))
	require.NoError(t, svc.Settle(ctx, completedEvent("evt_1")))

	balance, err := ledgerSvc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance, "duplicate deliveries must grant exactly once")
}

func TestSettleConcurrentDuplicatesGrantOnce(t *testing.T) {
	ctx := context.Background()
	svc, ledgerSvc := newService(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Settle(ctx, completedEvent("evt_race"))
		}()
	}
	wg.Wait()

	balance, err := ledgerSvc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

type flakyProcessed struct {
	inner    billing.ProcessedEventRepository
	failures int
}

func (f *flakyProcessed) MarkProcessed(ctx context.Context, eventID, sessionID string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New(errors.ErrCodeDatabaseError, "insert failed")
	}
	return f.inner.MarkProcessed(ctx, eventID, sessionID)
}

func TestSettleRetriesAfterEventRecordFailure(t *testing.T) {
	ctx := context.Background()
	log := logging.NewNopLogger()
	ledgerSvc := ledger.NewService(memory.NewLedgerRepository(), log)
	processed := &flakyProcessed{inner: memory.NewProcessedEventRepository(), failures: 1}
	svc := billing.NewService(ledgerSvc, &fakeProcessor{}, processed, log)

	// The first delivery grants but fails to record the event; the processor
	// redelivers and the grant replays through its idempotency key.
	require.Error(t, svc.Settle(ctx, completedEvent("evt_1")))
	require.NoError(t, svc.Settle(ctx, completedEvent("evt_1")))

	balance, err := ledgerSvc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance, "redelivery settles exactly once, never zero")
}

func TestSettleIgnoresOtherEventTypes(t *testing.T) {
	ctx := context.Background()
	svc, ledgerSvc := newService(t)

	ev := completedEvent("evt_1")
	ev.Type = "checkout.session.expired"
	require.NoError(t, svc.Settle(ctx, ev))

	balance, err := ledgerSvc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestSettleRejectsUnknownPack(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	ev := completedEvent("evt_1")
	ev.PackID = "TOKENS_9000"
	err := svc.Settle(ctx, ev)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownPack))
}

func TestCreateCheckout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	url, err := svc.CreateCheckout(ctx, "acct-1", "TOKENS_3000")
	require.NoError(t, err)
	assert.Contains(t, url, "TOKENS_3000")

	_, err = svc.CreateCheckout(ctx, "acct-1", "nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownPack))
}

func TestPackCatalog(t *testing.T) {
	require.Len(t, billing.Packs, 2)
	small, err := billing.PackByID("TOKENS_1000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), small.Tokens)
	assert.Equal(t, int64(1000), small.PriceUSD)

	large, err := billing.PackByID("TOKENS_3000")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), large.Tokens)
	assert.Equal(t, int64(2500), large.PriceUSD)
}
