package main

import (
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/edupulse/conversion-relay/internal/capi"
	"github.com/edupulse/conversion-relay/internal/config"
	"github.com/edupulse/conversion-relay/internal/httpserver"
	"github.com/edupulse/conversion-relay/internal/logger"
	"github.com/edupulse/conversion-relay/internal/store"
	"github.com/edupulse/conversion-relay/internal/subscribe"
	"github.com/edupulse/conversion-relay/internal/tracking"
)

// sessionIdleTTL is how long a browsing session's dedup ledger survives
// without activity.
const sessionIdleTTL = 30 * time.Minute

// main boots the service: env → config → logger → optional DB → pipeline →
// HTTP server.
func main() {
	// .env is a local-dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log.Environment, cfg.Log.Level)
	defer log.Sync()

	clientCfg := cfg.Meta.ClientConfig()
	if !clientCfg.Configured() {
		// Fail closed, not loud: the site keeps working, events are gated.
		log.Warn("conversions api credentials missing, all dispatches will be suppressed")
	}

	// Dispatch log is optional; without DB_URL the relay runs stateless.
	var st *store.PostgresStore
	var recorder tracking.Recorder
	if cfg.DB.URL != "" {
		st, err = store.NewPostgresStore(cfg.DB.URL)
		if err != nil {
			log.Fatal("dispatch log unavailable", zap.Error(err))
		}
		defer st.Close()

		if err := st.EnsureSchema(); err != nil {
			log.Fatal("dispatch log schema", zap.Error(err))
		}
		recorder = st
	}

	gate := tracking.NewGate(clientCfg, tracking.NewSessionLedgers(sessionIdleTTL))
	relayClient := capi.NewClient(clientCfg)
	production := cfg.Log.Environment == "production"
	pipeline := tracking.NewPipeline(gate, relayClient, log, recorder, production)

	subClient := subscribe.NewClient(subscribe.Config{
		BaseURL:      cfg.Subscription.BaseURL,
		ClientID:     cfg.Subscription.ClientID,
		ClientSecret: cfg.Subscription.ClientSecret,
		EnterpriseID: cfg.Subscription.EnterpriseID,
	})

	router := httpserver.NewRouter(cfg, pipeline, subClient, relayClient, st, log)

	log.Info("server started", zap.String("port", cfg.HTTP.Port))
	if err := router.Run(":" + cfg.HTTP.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
