package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/conversion-relay/internal/capi"
	"github.com/edupulse/conversion-relay/internal/pii"
	"github.com/edupulse/conversion-relay/internal/tracking"
)

// trackUser is the optional identity block a capture call may carry. Raw PII
// here never leaves the process unhashed.
type trackUser struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Postal     string `json:"postal"`
	ExternalID string `json:"external_id"`
}

// trackRequest is the POST /track payload: one user interaction.
type trackRequest struct {
	Event         string     `json:"event" binding:"required"`
	CourseName    string     `json:"course_name"`
	ScrollPercent int        `json:"scroll_percent"`
	FieldName     string     `json:"field_name"`
	Filled        bool       `json:"filled"`
	ModalName     string     `json:"modal_name"`
	User          *trackUser `json:"user"`
}

// userData maps the payload's identity block onto the raw user-data record,
// splitting the full name and defaulting external_id to the normalized phone.
func (r trackRequest) userData() capi.UserData {
	if r.User == nil {
		return capi.UserData{}
	}

	first, last := pii.SplitName(r.User.Name)
	externalID := r.User.ExternalID
	if externalID == "" {
		externalID = pii.NormalizePhone(r.User.Phone)
	}

	return capi.UserData{
		Email:      r.User.Email,
		Phone:      r.User.Phone,
		FirstName:  first,
		LastName:   last,
		City:       r.User.City,
		Region:     r.User.Region,
		Postal:     r.User.Postal,
		ExternalID: externalID,
	}
}

// RegisterTrackRoutes registers the capture endpoint.
//
// POST /track
//   - Collects browser signals from the request itself (cookies, query,
//     User-Agent, Referer)
//   - Dispatches fire-and-forget: always 202 on a well-formed payload, no
//     matter what happens downstream
func RegisterTrackRoutes(r gin.IRoutes, pipeline *tracking.Pipeline, collect tracking.CollectorFactory) {
	r.POST("/track", func(c *gin.Context) {
		var req trackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		kind, ok := capi.ParseKind(req.Event)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event kind"})
			return
		}

		var custom map[string]any
		var disc *tracking.Discriminator

		switch kind {
		case capi.KindScroll:
			if req.ScrollPercent < 1 || req.ScrollPercent > 100 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "scroll_percent must be 1-100"})
				return
			}
			custom = capi.ScrollData(req.ScrollPercent)
			d := tracking.ScrollMilestone(req.ScrollPercent)
			disc = &d
		case capi.KindFormField:
			if req.FieldName == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "field_name required"})
				return
			}
			custom = capi.FormFieldData(req.FieldName, req.Filled)
			d := tracking.FormFieldName(req.FieldName)
			disc = &d
		case capi.KindModalOpen, capi.KindModalClose:
			custom = capi.ModalData(req.ModalName)
		case capi.KindLead, capi.KindViewContent, capi.KindInitiateCheckout:
			custom = capi.ContentData(req.CourseName)
		}

		signals := collect(c.Request).Collect()

		pipeline.Go(tracking.Request{
			Kind:          kind,
			User:          req.userData(),
			Custom:        custom,
			Discriminator: disc,
			Signals:       signals,
		})

		c.JSON(http.StatusAccepted, gin.H{"accepted": true})
	})
}
