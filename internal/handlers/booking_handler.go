package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/dto"
	"github.com/BruksfildServices01/tutor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/tutor-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/tutor-scheduler/internal/middleware"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
	ucBooking "github.com/BruksfildServices01/tutor-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	svc *ucBooking.Service
}

func NewBookingHandler(svc *ucBooking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// ======================================================
// CREATE
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		httperr.Unauthorized(c, "unauthenticated", "Authentication required.")
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	in, err := createInput(req)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	b, err := h.svc.Create(c.Request.Context(), actor, in)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.Created(c, dto.FromBooking(b))
}

func createInput(req dto.CreateBookingRequest) (ucBooking.CreateInput, error) {
	var (
		in  ucBooking.CreateInput
		err error
	)
	if in.TeacherID, err = parseID("teacher_id", req.TeacherID); err != nil {
		return in, err
	}
	if in.StudentID, err = parseID("student_id", req.StudentID); err != nil {
		return in, err
	}
	if in.SubjectID, err = parseID("subject_id", req.SubjectID); err != nil {
		return in, err
	}
	if in.ScheduleID, err = parseOptionalID("schedule_id", req.ScheduleID); err != nil {
		return in, err
	}
	if in.Date, err = parseDate("date", req.Date); err != nil {
		return in, err
	}
	if in.StartTime, err = parseTimeOfDay("start_time", req.StartTime); err != nil {
		return in, err
	}
	if in.EndTime, err = parseTimeOfDay("end_time", req.EndTime); err != nil {
		return in, err
	}
	in.Notes = req.Notes
	return in, nil
}

// ======================================================
// READ
// ======================================================

func (h *BookingHandler) Get(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	b, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, dto.FromBooking(b))
}

func (h *BookingHandler) History(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	chain, err := h.svc.History(c.Request.Context(), actor, id)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.List(c, dto.FromBookings(chain))
}

func (h *BookingHandler) Reschedules(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	next, err := h.svc.Reschedules(c.Request.Context(), actor, id)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.List(c, dto.FromBookings(next))
}

func (h *BookingHandler) TeacherDay(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		httperr.Unauthorized(c, "unauthenticated", "Authentication required.")
		return
	}

	teacherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.FromDomain(c, httperr.ErrBusiness("invalid_teacher_id"))
		return
	}
	date, err := parseDate("date", c.Query("date"))
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	list, err := h.svc.TeacherDay(c.Request.Context(), actor, teacherID, date)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.List(c, dto.FromBookings(list))
}

// ======================================================
// UPDATE / DELETE
// ======================================================

func (h *BookingHandler) Update(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	in, err := updateInput(req)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	b, err := h.svc.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.OK(c, dto.FromBooking(b))
}

func updateInput(req dto.UpdateBookingRequest) (ucBooking.UpdateInput, error) {
	var (
		in  ucBooking.UpdateInput
		err error
	)
	if in.SubjectID, err = parseOptionalID("subject_id", req.SubjectID); err != nil {
		return in, err
	}
	if req.Date != nil {
		d, err := parseDate("date", *req.Date)
		if err != nil {
			return in, err
		}
		in.Date = &d
	}
	if req.StartTime != nil {
		t, err := parseTimeOfDay("start_time", *req.StartTime)
		if err != nil {
			return in, err
		}
		in.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := parseTimeOfDay("end_time", *req.EndTime)
		if err != nil {
			return in, err
		}
		in.EndTime = &t
	}
	in.Notes = req.Notes
	return in, nil
}

func (h *BookingHandler) Delete(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.NoContent(c)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *BookingHandler) Approve(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Approve(c.Request.Context(), actor, id))
}

func (h *BookingHandler) Reject(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Reject(c.Request.Context(), actor, id, reason))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Cancel(c.Request.Context(), actor, id, reason))
}

func (h *BookingHandler) Complete(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Complete(c.Request.Context(), actor, id))
}

func (h *BookingHandler) Miss(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Miss(c.Request.Context(), actor, id))
}

func (h *BookingHandler) Reschedule(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	var req dto.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	var (
		in  ucBooking.RescheduleInput
		err error
	)
	if in.Date, err = parseDate("date", req.Date); err == nil {
		if in.StartTime, err = parseTimeOfDay("start_time", req.StartTime); err == nil {
			in.EndTime, err = parseTimeOfDay("end_time", req.EndTime)
		}
	}
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	in.Notes = req.Notes

	out, err := h.svc.Reschedule(c.Request.Context(), actor, id, in)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.Created(c, dto.RescheduleDTO{
		Original: dto.FromBooking(out.Original),
		Booking:  dto.FromBooking(out.Next),
	})
}

// ======================================================
// HELPERS
// ======================================================

// target resolves the actor and the :id path parameter, writing the error
// response itself when either is missing.
func (h *BookingHandler) target(c *gin.Context) (actor booking.Actor, id uuid.UUID, ok bool) {
	actor, ok = middleware.ActorFrom(c)
	if !ok {
		httperr.Unauthorized(c, "unauthenticated", "Authentication required.")
		return actor, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.FromDomain(c, httperr.ErrBusiness("invalid_booking_id"))
		return actor, uuid.Nil, false
	}
	return actor, id, true
}

func (h *BookingHandler) respond(c *gin.Context) func(*models.Booking, error) {
	return func(b *models.Booking, err error) {
		if err != nil {
			httperr.FromDomain(c, err)
			return
		}
		httpresp.OK(c, dto.FromBooking(b))
	}
}

// bindReason reads an optional {"reason": "..."} body.
func bindReason(c *gin.Context) (string, bool) {
	var req dto.ReasonRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return "", false
	}
	return req.Reason, true
}
