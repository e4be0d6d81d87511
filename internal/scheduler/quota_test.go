package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/core-coin/gutta/internal/models"
)

func TestCycleOfThreeForcesFourthMainnet(t *testing.T) {
	rng := &fakeRand{}
	q := newQuotaState(rng, 4000, 6300, []int{3}, time.Now())

	require.Equal(t, models.NetworkTestnet, q.selectNetwork())
	require.Equal(t, models.NetworkTestnet, q.selectNetwork())
	require.Equal(t, models.NetworkTestnet, q.selectNetwork())
	require.Equal(t, models.NetworkMainnet, q.selectNetwork())

	// The counter reset, so the next cycle starts over.
	require.Equal(t, models.NetworkTestnet, q.selectNetwork())
}

func TestQuotaPausesAtTargetWithoutCapping(t *testing.T) {
	rng := &fakeRand{ranges: []int{2}}
	q := newQuotaState(rng, 2, 2, []int{1}, time.Now())

	require.False(t, q.quotaReached())

	q.recordSuccess(models.NetworkMainnet)
	q.recordSuccess(models.NetworkTestnet) // testnet mints never count
	require.False(t, q.quotaReached())

	q.recordSuccess(models.NetworkMainnet)
	require.True(t, q.quotaReached())

	// Counting past the target is allowed; the target is a pause
	// trigger, not a hard cap.
	q.recordSuccess(models.NetworkMainnet)
	count, target := q.progress()
	require.Equal(t, 3, count)
	require.Equal(t, 2, target)
}

func TestRolloverResetsCountersOnceAtBoundary(t *testing.T) {
	rng := &fakeRand{ranges: []int{10, 20}}
	day1 := time.Date(2026, 8, 29, 23, 50, 0, 0, time.UTC)
	q := newQuotaState(rng, 1, 100, []int{3}, day1)

	q.recordSuccess(models.NetworkMainnet)

	// Same day: no rollover no matter how often it is checked.
	rolled, _ := q.rolloverIfNewDay(day1.Add(5 * time.Minute))
	require.False(t, rolled)

	day2 := day1.Add(time.Hour)
	rolled, newTarget := q.rolloverIfNewDay(day2)
	require.True(t, rolled)
	require.Equal(t, 20, newTarget)

	count, target := q.progress()
	require.Zero(t, count)
	require.Equal(t, 20, target)

	// The boundary fires exactly once.
	rolled, _ = q.rolloverIfNewDay(day2.Add(time.Minute))
	require.False(t, rolled)
}
