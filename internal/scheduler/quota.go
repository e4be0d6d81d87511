package scheduler

import (
	"sync"
	"time"

	"github.com/core-coin/gutta/internal/models"
)

// quotaState is the daily-quota and network-selection state machine. One
// mutex covers every field: the dispatcher reads it when selecting a
// network and the aggregator writes it when a mint confirms, and the two
// must never observe each other mid-update.
type quotaState struct {
	mu sync.Mutex

	rng          models.RandomSource
	minTarget    int
	maxTarget    int
	cycleOptions []int

	// target is the number of mainnet mints to complete before today's
	// cooldown. Reaching it pauses the bot, it never stops it.
	target            int
	mainnetCountToday int
	testnetStreak     int
	cycleLength       int
	currentDate       string
}

func newQuotaState(rng models.RandomSource, minTarget, maxTarget int, cycleOptions []int, now time.Time) *quotaState {
	return &quotaState{
		rng:          rng,
		minTarget:    minTarget,
		maxTarget:    maxTarget,
		cycleOptions: cycleOptions,
		target:       rng.IntRange(minTarget, maxTarget),
		cycleLength:  rng.IntChoice(cycleOptions),
		currentDate:  now.Format("2006-01-02"),
	}
}

// selectNetwork returns the network for the next mint. After cycleLength
// consecutive testnet selections the next one is mainnet; the cycle
// length is redrawn each time mainnet comes up.
func (q *quotaState) selectNetwork() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.testnetStreak >= q.cycleLength {
		q.testnetStreak = 0
		q.cycleLength = q.rng.IntChoice(q.cycleOptions)
		return models.NetworkMainnet
	}
	q.testnetStreak++
	return models.NetworkTestnet
}

// recordSuccess counts a confirmed mainnet mint toward today's target.
func (q *quotaState) recordSuccess(network string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if network == models.NetworkMainnet {
		q.mainnetCountToday++
	}
}

// quotaReached reports whether today's mainnet target is met.
func (q *quotaState) quotaReached() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mainnetCountToday >= q.target
}

// rolloverIfNewDay resets the daily counters when the calendar date has
// changed since the last call. It returns true exactly once per day
// boundary, together with the freshly drawn target.
func (q *quotaState) rolloverIfNewDay(now time.Time) (bool, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	date := now.Format("2006-01-02")
	if date == q.currentDate {
		return false, 0
	}
	q.currentDate = date
	q.mainnetCountToday = 0
	q.target = q.rng.IntRange(q.minTarget, q.maxTarget)
	return true, q.target
}

// progress returns today's confirmed mainnet count and target.
func (q *quotaState) progress() (count, target int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mainnetCountToday, q.target
}
