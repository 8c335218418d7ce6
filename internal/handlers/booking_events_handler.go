package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/tutor-scheduler/internal/httpresp"
)

// Events lists the audit trail of a booking, newest first.
//
//	GET /api/bookings/:id/events?kind=BookingApproved&page=1&limit=50
func (h *BookingHandler) Events(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	kind := booking.EventKind(c.Query("kind"))

	res, err := h.svc.Events(c.Request.Context(), actor, id, kind, page, limit)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.Page(c, res.Events, res.Total, res.Page, res.Limit)
}
