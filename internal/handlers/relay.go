package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edupulse/conversion-relay/internal/capi"
)

// relayRequest holds the caller-built events array. Raw because the proxy
// forwards it untouched: the caller owns the envelope shape.
type relayRequest struct {
	Data json.RawMessage `json:"data"`
}

// RegisterRelayRoutes registers the server-side proxy for clients that build
// their own envelopes and only need credentialed forwarding.
//
// POST /relay — forwards {data:[…]} upstream, returns the upstream response
// verbatim with its status. 500 when credentials are missing (fail closed,
// nothing leaves the process), 400 on a malformed data array.
//
// GET /relay — health probe reporting configuration state without revealing
// the credential itself.
func RegisterRelayRoutes(r gin.IRoutes, client *capi.Client, cfg capi.ClientConfig, log *zap.Logger, production bool) {
	r.POST("/relay", func(c *gin.Context) {
		if !cfg.Configured() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "server configuration incomplete",
				"message": "check META_PIXEL_ID and META_ACCESS_TOKEN",
			})
			return
		}

		var req relayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		var events []json.RawMessage
		if err := json.Unmarshal(req.Data, &events); err != nil || len(events) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": `invalid payload, expected {"data": [...]}`})
			return
		}

		status, body, err := client.Forward(c.Request.Context(), req.Data)
		if err != nil {
			log.Warn("relay forward failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to reach conversions endpoint"})
			return
		}

		if status >= 400 && !production {
			log.Warn("upstream rejected relayed events", zap.Int("status", status))
		}

		c.Data(status, "application/json", body)
	})

	r.GET("/relay", func(c *gin.Context) {
		status := "not_configured"
		if cfg.Configured() {
			status = "configured"
		}

		var pixelID any
		if cfg.PixelID != "" {
			pixelID = cfg.PixelID
		}

		c.JSON(http.StatusOK, gin.H{
			"status":           status,
			"pixel_id":         pixelID,
			"has_access_token": cfg.AccessToken != "",
		})
	})
}
