package tracking

import (
	"github.com/edupulse/conversion-relay/internal/capi"
)

// Gate decides whether an assembled envelope may be dispatched at all.
// Checks run in a fixed order: configuration, consent, session dedup,
// minimum identity signal. The ledger is only mutated on acceptance, and
// the insert happens before any network call so a slow or failed send can
// never cause a retry-induced duplicate within the session.
type Gate struct {
	cfg     capi.ClientConfig
	ledgers *SessionLedgers
}

func NewGate(cfg capi.ClientConfig, ledgers *SessionLedgers) *Gate {
	return &Gate{cfg: cfg, ledgers: ledgers}
}

// Authorize returns nil when the envelope may be sent. disc is non-nil only
// for the dedupable kinds (Scroll, FormField).
func (g *Gate) Authorize(sig Signals, env capi.Envelope, disc *Discriminator) error {
	if !g.cfg.Configured() {
		return capi.ErrNotConfigured
	}
	if !sig.Consent {
		return capi.ErrConsentDenied
	}

	var ledger *Ledger
	if disc != nil {
		ledger = g.ledgers.For(sig.SessionKey)
		if ledger.Contains(*disc) {
			return capi.ErrDuplicate
		}
	}

	if !env.UserData.HasIdentitySignal() {
		return capi.ErrNoIdentitySignal
	}

	// Atomicity point: the losing side of a concurrent race for the same
	// milestone surfaces as a duplicate here.
	if disc != nil && !ledger.TryInsert(*disc) {
		return capi.ErrDuplicate
	}
	return nil
}
