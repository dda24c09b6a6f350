package service

import (
	"testing"

	"breakout_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanEntryLongFromReferenceCandle(t *testing.T) {
	t.Parallel()
	plan, err := PlanEntry(EntryInput{
		Side:       models.SideBull,
		Price:      101.5,
		Ref:        &models.Candle{High: 101, Low: 100.5},
		RiskAmount: 2000,
		RR:         2,
		TrailRatio: 1.5,
	}, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, 100.5, plan.SL)
	assert.Equal(t, 1.0, plan.Risk)
	assert.Equal(t, int64(2000), plan.Qty)
	assert.Equal(t, 103.5, plan.Target)
	assert.Equal(t, 1.5, plan.TrailStep)
}

func TestPlanEntryClampsStopByMinimumGap(t *testing.T) {
	t.Parallel()
	p := DefaultParams()
	p.MinGapPct = 0.01

	long, err := PlanEntry(EntryInput{
		Side: models.SideBull, Price: 100, Ref: &models.Candle{High: 100, Low: 99.5},
		RiskAmount: 2000, RR: 2,
	}, p)
	require.NoError(t, err)
	assert.Equal(t, 99.0, long.SL)
	assert.Equal(t, int64(2000), long.Qty)
	assert.Equal(t, 102.0, long.Target)
	assert.Equal(t, long.Risk, long.TrailStep)

	short, err := PlanEntry(EntryInput{
		Side: models.SideBear, Price: 100, Ref: &models.Candle{High: 100.5, Low: 100},
		RiskAmount: 2000, RR: 2,
	}, p)
	require.NoError(t, err)
	assert.Equal(t, 101.0, short.SL)
	assert.Equal(t, 98.0, short.Target)
}

func TestPlanEntryRoundsStopToTick(t *testing.T) {
	t.Parallel()
	long, err := PlanEntry(EntryInput{
		Side: models.SideBull, Price: 101.5, Ref: &models.Candle{High: 101.5, Low: 100.47},
		RiskAmount: 2000, RR: 2,
	}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 100.45, long.SL)
	assert.InDelta(t, 1.05, long.Risk, 1e-9)

	short, err := PlanEntry(EntryInput{
		Side: models.SideBear, Price: 100, Ref: &models.Candle{High: 100.62, Low: 100},
		RiskAmount: 2000, RR: 2,
	}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 100.65, short.SL)
}

func TestPlanEntryFallbackStop(t *testing.T) {
	t.Parallel()
	plan, err := PlanEntry(EntryInput{Side: models.SideMomBear, Price: 200, RiskAmount: 1000, RR: 1}, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 201.0, plan.SL, 0.011)
	assert.Greater(t, plan.SL, 200.0)
	assert.Less(t, plan.Target, 200.0)
}

func TestPlanEntryRejects(t *testing.T) {
	t.Parallel()
	_, err := PlanEntry(EntryInput{Side: models.SideBull, Price: 0}, DefaultParams())
	assert.ErrorIs(t, err, ErrBadEntryPrice)

	_, err = PlanEntry(EntryInput{
		Side: models.SideBull, Price: 101.5, Ref: &models.Candle{Low: 99.5}, RiskAmount: 1, RR: 2,
	}, DefaultParams())
	assert.ErrorIs(t, err, ErrZeroQty)
}
