package tracking

import (
	"strconv"
	"sync"
	"time"

	"github.com/edupulse/conversion-relay/internal/capi"
)

// Discriminator tags one naturally repeatable occurrence within a session:
// a scroll milestone or a form field name.
type Discriminator struct {
	Kind  capi.Kind
	Value string
}

// ScrollMilestone tags a scroll-depth threshold crossing.
func ScrollMilestone(percentage int) Discriminator {
	return Discriminator{Kind: capi.KindScroll, Value: strconv.Itoa(percentage)}
}

// FormFieldName tags a form field completion.
func FormFieldName(field string) Discriminator {
	return Discriminator{Kind: capi.KindFormField, Value: field}
}

// Ledger is the session-scoped set of discriminators already dispatched.
// Insertion is atomic with respect to concurrent triggers of the same
// milestone, so two near-simultaneous scroll handlers cannot both pass.
type Ledger struct {
	mu   sync.Mutex
	seen map[Discriminator]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{seen: make(map[Discriminator]struct{})}
}

// Contains reports whether the pair was already dispatched. Read-only: a
// rejected duplicate must not extend the ledger.
func (l *Ledger) Contains(d Discriminator) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[d]
	return ok
}

// TryInsert atomically records the pair, returning false when it was already
// present (the caller lost a race and must treat the event as a duplicate).
func (l *Ledger) TryInsert(d Discriminator) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[d]; ok {
		return false
	}
	l.seen[d] = struct{}{}
	return true
}

// SessionLedgers hands out one ledger per browsing session and forgets
// sessions after an idle period. State lives only in process memory: the
// ledger is never persisted.
type SessionLedgers struct {
	mu       sync.Mutex
	idleTTL  time.Duration
	sessions map[string]*sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	ledger   *Ledger
	lastSeen time.Time
}

func NewSessionLedgers(idleTTL time.Duration) *SessionLedgers {
	return &SessionLedgers{
		idleTTL:  idleTTL,
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

// For returns the ledger for a session key, creating it on first sight and
// sweeping sessions idle past the TTL.
func (s *SessionLedgers) For(key string) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.idleTTL {
			delete(s.sessions, k)
		}
	}

	e, ok := s.sessions[key]
	if !ok {
		e = &sessionEntry{ledger: NewLedger()}
		s.sessions[key] = e
	}
	e.lastSeen = now
	return e.ledger
}
