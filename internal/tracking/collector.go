package tracking

import (
	"net"
	"net/http"
	"strings"

	"github.com/edupulse/conversion-relay/internal/pii"
)

// Cookie and query-parameter names the destination platform's browser SDK
// writes; the collector only reads them.
const (
	fbpCookieName   = "_fbp"
	fbcQueryParam   = "_fbc"
	sessionCookie   = "relay_session"
	consentAccepted = "accepted"
)

// Signals is everything the collector can learn about one interaction:
// browser identifiers, page context, consent state, and the key that scopes
// the session dedup ledger. Every identifier is optional; absence only
// reduces the identity signals available to the gate.
type Signals struct {
	FBP        string
	FBC        string
	SourceURL  string
	UserAgent  string
	ClientIP   string
	Consent    bool
	SessionKey string
}

// Collector is the capture-side capability boundary: implemented only where
// cookies, URLs and user agents actually exist.
type Collector interface {
	Collect() Signals
}

// CollectorFactory yields a Collector for one inbound request. Handlers
// depend on this boundary, not on a concrete collector, so capture can be
// stubbed where no real browser context exists.
type CollectorFactory func(r *http.Request) Collector

// NewRequestCollectorFactory binds the consent cookie name once and hands
// out request-backed collectors.
func NewRequestCollectorFactory(consentCookie string) CollectorFactory {
	return func(r *http.Request) Collector {
		return RequestCollector{Request: r, ConsentCookie: consentCookie}
	}
}

// RequestCollector reads signals from an inbound HTTP request — the server
// half of the pipeline sees the browser context via the capture call itself.
type RequestCollector struct {
	Request       *http.Request
	ConsentCookie string
}

func (c RequestCollector) Collect() Signals {
	r := c.Request

	s := Signals{
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r),
	}

	if ck, err := r.Cookie(fbpCookieName); err == nil {
		s.FBP = ck.Value
	}
	s.FBC = r.URL.Query().Get(fbcQueryParam)

	// The page the visitor interacted with, not the capture endpoint.
	if ref := r.Referer(); ref != "" {
		s.SourceURL = ref
	}

	if ck, err := r.Cookie(c.ConsentCookie); err == nil {
		s.Consent = ck.Value == consentAccepted
	}

	s.SessionKey = sessionKey(r, s)
	return s
}

// sessionKey scopes the dedup ledger to one browsing session: the fbp cookie
// when present, else a dedicated session cookie, else a digest of the
// client's address and user agent.
func sessionKey(r *http.Request, s Signals) string {
	if s.FBP != "" {
		return s.FBP
	}
	if ck, err := r.Cookie(sessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return pii.Hash(s.ClientIP + "|" + s.UserAgent)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
