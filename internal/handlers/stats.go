package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DispatchCounter is the slice of the dispatch log the stats endpoint needs.
type DispatchCounter interface {
	CountDispatches(ctx context.Context, eventName, status string, from, to time.Time) (int64, error)
}

// RegisterStatsRoutes registers the reconciliation endpoint. Only mounted
// when the dispatch log is enabled.
//
// GET /stats?event_name=...&status=...&from=...&to=...
// - Returns the logged outcome count for the window [from,to)
// - status defaults to "sent"
func RegisterStatsRoutes(r gin.IRoutes, counter DispatchCounter) {
	r.GET("/stats", func(c *gin.Context) {
		eventName := c.Query("event_name")
		status := c.DefaultQuery("status", "sent")
		fromStr := c.Query("from")
		toStr := c.Query("to")

		// Required query params per contract.
		if eventName == "" || fromStr == "" || toStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_name, from, to are required"})
			return
		}

		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}

		from = from.UTC()
		to = to.UTC()

		// Validate window to avoid confusing results.
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be < to"})
			return
		}

		count, err := counter.CountDispatches(c.Request.Context(), eventName, status, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch log query failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"event_name": eventName,
			"status":     status,
			"count":      count,
		})
	})
}
