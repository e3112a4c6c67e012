package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/conversion-relay/internal/capi"
	"github.com/edupulse/conversion-relay/internal/pii"
	"github.com/edupulse/conversion-relay/internal/subscribe"
	"github.com/edupulse/conversion-relay/internal/tracking"
)

// subscribeRequest is the POST /subscribe payload from the contact form.
type subscribeRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email"`
	Phone          string `json:"phone" binding:"required"`
	AreaOfInterest string `json:"areaOfInterest" binding:"required"`
	EnterpriseID   int    `json:"enterpriseId"`
}

// RegisterSubscribeRoutes registers the subscription flow.
//
// POST /subscribe
//   - Lead is dispatched before the store write, CompleteRegistration only
//     after it succeeds; that ordering is this handler's contract
//   - Only subscription-store failures surface to the caller; tracking
//     failures are absorbed by the pipeline
func RegisterSubscribeRoutes(r gin.IRoutes, pipeline *tracking.Pipeline, store *subscribe.Client, collect tracking.CollectorFactory) {
	r.POST("/subscribe", func(c *gin.Context) {
		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, phone and areaOfInterest are required"})
			return
		}

		signals := collect(c.Request).Collect()

		first, last := pii.SplitName(req.Name)
		phoneDigits := pii.NormalizePhone(req.Phone)
		user := capi.UserData{
			Email:      req.Email,
			Phone:      req.Phone,
			FirstName:  first,
			LastName:   last,
			ExternalID: phoneDigits,
		}
		content := capi.ContentData(req.AreaOfInterest)

		// Lead goes out before the write; its outcome is deliberately ignored.
		_ = pipeline.Dispatch(c.Request.Context(), tracking.Request{
			Kind:    capi.KindLead,
			User:    user,
			Custom:  content,
			Signals: signals,
		})

		err := store.Subscribe(c.Request.Context(), subscribe.Subscription{
			Name:           req.Name,
			Phone:          phoneDigits,
			AreaOfInterest: req.AreaOfInterest,
			EnterpriseID:   req.EnterpriseID,
		})
		if err != nil {
			var apiErr *subscribe.APIError
			if errors.As(err, &apiErr) {
				c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "subscription service unavailable"})
			return
		}

		// Registration confirmed; the paired conversion event follows
		// fire-and-forget so the response never waits on tracking.
		pipeline.Go(tracking.Request{
			Kind:    capi.KindCompleteRegistration,
			User:    user,
			Custom:  content,
			Signals: signals,
		})

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
