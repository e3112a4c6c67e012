package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/edupulse/conversion-relay/internal/capi"
	"github.com/edupulse/conversion-relay/internal/config"
	"github.com/edupulse/conversion-relay/internal/handlers"
	"github.com/edupulse/conversion-relay/internal/store"
	"github.com/edupulse/conversion-relay/internal/subscribe"
	"github.com/edupulse/conversion-relay/internal/tracking"
)

// NewRouter wires the public surface.
// Probes: /health, /ready, /metrics
// Pipeline: /track, /subscribe, /relay
func NewRouter(
	cfg *config.Config,
	pipeline *tracking.Pipeline,
	subClient *subscribe.Client,
	relayClient *capi.Client,
	st *store.PostgresStore,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: the dispatch log is the only hard dependency, and only
	// when enabled; the relay itself is stateless.
	r.GET("/ready", func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "dispatch_log": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	production := cfg.Log.Environment == "production"
	collect := tracking.NewRequestCollectorFactory(cfg.Consent.CookieName)

	handlers.RegisterTrackRoutes(r, pipeline, collect)
	handlers.RegisterSubscribeRoutes(r, pipeline, subClient, collect)
	handlers.RegisterRelayRoutes(r, relayClient, cfg.Meta.ClientConfig(), log, production)
	if st != nil {
		handlers.RegisterStatsRoutes(r, st)
	}

	return r
}
