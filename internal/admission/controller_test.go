package admission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/admission"
	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/internal/infrastructure/memory"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

func newFixture(t *testing.T, startingBalance int64) (*admission.Controller, *ledger.Service) {
	t.Helper()
	svc := ledger.NewService(memory.NewLedgerRepository(), logging.NewNopLogger())
	if startingBalance > 0 {
		_, err := svc.Grant(context.Background(), "acct-1", startingBalance, "test grant", "", "grant-seed")
		require.NoError(t, err)
	}
	return admission.NewController(svc, logging.NewNopLogger()), svc
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		want     int64
	}{
		{"thirty seconds", 30, 300},
		{"fractional rounds up", 12.3, 130},
		{"at the cap", 60, 600},
		{"over the cap still charges the cap", 59.9, 600},
		{"unknown duration charges the cap", 0, 600},
		{"negative duration charges the cap", -1, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, admission.EstimateCost(tt.duration))
		})
	}
}

func TestAdmitDebitsEstimate(t *testing.T) {
	ctx := context.Background()
	ctrl, svc := newFixture(t, 1000)

	slot, err := ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-1", DurationSeconds: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(600), slot.EstimatedCost)

	balance, err := svc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance)

	// Settlement refunds the overestimate: 30s actually analyzed costs 300.
	_, err = svc.Refund(ctx, "acct-1", 300, "actual below estimate", "job-1", "refund:job-1")
	require.NoError(t, err)
	balance, err = svc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)
}

func TestAdmitRejectsInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	ctrl, svc := newFixture(t, 100)

	_, err := ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-1", DurationSeconds: 60,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInsufficientCredits))

	// The rejection must leave no slot held and no charge applied.
	assert.False(t, ctrl.InFlight("acct-1"))
	balance, err := svc.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestAdmitEnforcesSingleInFlightSlot(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newFixture(t, 2000)

	slot, err := ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-1", DurationSeconds: 30,
	})
	require.NoError(t, err)

	_, err = ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-2", DurationSeconds: 30,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConcurrencyLimit))

	slot.Release()
	_, err = ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-3", DurationSeconds: 30,
	})
	require.NoError(t, err)
}

func TestSlotReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newFixture(t, 2000)

	slot, err := ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-1", DurationSeconds: 30,
	})
	require.NoError(t, err)

	slot.Release()
	slot.Release()
	assert.False(t, ctrl.InFlight("acct-1"))
}

func TestAdmitRejectsOversizedUpload(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newFixture(t, 2000)

	_, err := ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-1",
		SizeBytes: 33 << 20, DurationSeconds: 30,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUploadTooLarge))
}

func TestAdmitRejectsOverlongVideo(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newFixture(t, 2000)

	_, err := ctrl.Admit(ctx, admission.Request{
		AccountID: "acct-1", JobID: "job-1", DurationSeconds: 61,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVideoTooLong))
}
