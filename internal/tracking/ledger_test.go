package tracking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLedger_TryInsertIsAtMostOnce(t *testing.T) {
	l := NewLedger()
	d := ScrollMilestone(50)

	assert.True(t, l.TryInsert(d))
	assert.False(t, l.TryInsert(d))
	assert.True(t, l.Contains(d))

	// Different milestone is an independent entry.
	assert.True(t, l.TryInsert(ScrollMilestone(75)))

	// Same value under a different kind is an independent entry.
	assert.True(t, l.TryInsert(FormFieldName("50")))
}

func TestLedger_ConcurrentTriggersAdmitExactlyOne(t *testing.T) {
	l := NewLedger()
	d := ScrollMilestone(50)

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryInsert(d) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
}

func TestSessionLedgers_IsolatedPerSession(t *testing.T) {
	s := NewSessionLedgers(30 * time.Minute)
	d := FormFieldName("whatsapp")

	assert.True(t, s.For("session-a").TryInsert(d))
	assert.True(t, s.For("session-b").TryInsert(d))
	assert.False(t, s.For("session-a").TryInsert(d))
}

func TestSessionLedgers_IdleSessionsExpire(t *testing.T) {
	s := NewSessionLedgers(30 * time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	d := ScrollMilestone(100)
	assert.True(t, s.For("visitor").TryInsert(d))

	// Session end: after the idle window the ledger is a fresh set.
	now = now.Add(31 * time.Minute)
	assert.True(t, s.For("visitor").TryInsert(d))
}
