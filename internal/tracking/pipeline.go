package tracking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edupulse/conversion-relay/internal/capi"
	"github.com/edupulse/conversion-relay/internal/metrics"
)

// dispatchTimeout bounds a detached send so abandoned upstreams cannot pin
// goroutines forever.
const dispatchTimeout = 15 * time.Second

// Recorder persists dispatch outcomes for reconciliation. Optional; the
// session dedup ledger is deliberately NOT backed by it.
type Recorder interface {
	RecordDispatch(ctx context.Context, env capi.Envelope, status, detail string) error
}

// Request is one capture→relay unit of work.
type Request struct {
	Kind          capi.Kind
	User          capi.UserData
	Custom        map[string]any
	Discriminator *Discriminator
	Signals       Signals
}

// Pipeline runs capture → build → authorize → send for one event. Every
// failure mode is absorbed here: callers on the interaction path never see
// a tracking error.
type Pipeline struct {
	gate       *Gate
	client     *capi.Client
	log        *zap.Logger
	recorder   Recorder
	production bool
}

func NewPipeline(gate *Gate, client *capi.Client, log *zap.Logger, recorder Recorder, production bool) *Pipeline {
	return &Pipeline{
		gate:       gate,
		client:     client,
		log:        log,
		recorder:   recorder,
		production: production,
	}
}

// Dispatch executes one event synchronously. The returned error is for
// callers that need the outcome (tests, the subscribe ordering contract);
// it has already been logged and counted, never re-raise it to a user.
func (p *Pipeline) Dispatch(ctx context.Context, req Request) error {
	user := req.User
	if user.FBP == "" {
		user.FBP = req.Signals.FBP
	}
	if user.FBC == "" {
		user.FBC = req.Signals.FBC
	}
	if user.ClientIP == "" {
		user.ClientIP = req.Signals.ClientIP
	}

	env := capi.BuildEnvelope(req.Kind, user, req.Custom, req.Signals.SourceURL, req.Signals.UserAgent)

	if err := p.gate.Authorize(req.Signals, env, req.Discriminator); err != nil {
		p.suppressed(env, err)
		return err
	}

	resp, err := p.client.Send(ctx, env)
	if err != nil {
		p.failed(env, resp, err)
		p.record(env, "failed", err.Error())
		return err
	}

	metrics.EventsDispatched.WithLabelValues(string(env.EventName)).Inc()
	p.log.Debug("event dispatched",
		zap.String("event_name", string(env.EventName)),
		zap.String("event_id", env.EventID),
		zap.Int("events_received", resp.EventsReceived))
	p.record(env, "sent", "")
	return nil
}

// Go dispatches fire-and-forget: the interaction handler returns immediately
// and the send runs to completion or failure on its own context, unaffected
// by navigation or modal state.
func (p *Pipeline) Go(req Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		_ = p.Dispatch(ctx, req)
	}()
}

func (p *Pipeline) suppressed(env capi.Envelope, err error) {
	reason := "other"
	switch {
	case errors.Is(err, capi.ErrNotConfigured):
		reason = "not_configured"
	case errors.Is(err, capi.ErrConsentDenied):
		reason = "no_consent"
	case errors.Is(err, capi.ErrDuplicate):
		reason = "duplicate"
	case errors.Is(err, capi.ErrNoIdentitySignal):
		reason = "no_identity_signal"
	}
	metrics.EventsSuppressed.WithLabelValues(string(env.EventName), reason).Inc()
	p.log.Debug("event suppressed",
		zap.String("event_name", string(env.EventName)),
		zap.String("reason", reason))
}

func (p *Pipeline) failed(env capi.Envelope, resp *capi.Response, err error) {
	fields := []zap.Field{
		zap.String("event_name", string(env.EventName)),
		zap.String("event_id", env.EventID),
	}

	var pe *capi.PlatformError
	var cr *capi.ConfigRejection
	var te *capi.TransientError

	switch {
	case errors.As(err, &cr):
		metrics.EventsFailed.WithLabelValues(string(env.EventName), "config_rejection").Inc()
		// Credential detail stays out of production logs.
		if !p.production {
			p.log.Warn("relay rejected by upstream", append(fields, zap.Int("status", cr.Status), zap.Error(err))...)
		}
	case errors.As(err, &pe):
		metrics.EventsFailed.WithLabelValues(string(env.EventName), "platform_rejection").Inc()
		f := append(fields,
			zap.Int("code", pe.Code),
			zap.String("type", pe.Type),
			zap.String("message", pe.Message))
		if resp != nil && resp.FBTraceID != "" {
			f = append(f, zap.String("fbtrace_id", resp.FBTraceID))
		}
		p.log.Warn("platform rejected event", f...)
	case errors.As(err, &te):
		metrics.EventsFailed.WithLabelValues(string(env.EventName), "transient").Inc()
		p.log.Warn("transient relay failure", append(fields, zap.Error(err))...)
	default:
		metrics.EventsFailed.WithLabelValues(string(env.EventName), "other").Inc()
		p.log.Error("relay dispatch failed", append(fields, zap.Error(err))...)
	}
}

func (p *Pipeline) record(env capi.Envelope, status, detail string) {
	if p.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.recorder.RecordDispatch(ctx, env, status, detail); err != nil {
		p.log.Warn("dispatch log write failed", zap.Error(err))
	}
}
