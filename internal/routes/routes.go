package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/tutor-scheduler/internal/config"
	"github.com/BruksfildServices01/tutor-scheduler/internal/handlers"
	"github.com/BruksfildServices01/tutor-scheduler/internal/middleware"
	ucBooking "github.com/BruksfildServices01/tutor-scheduler/internal/usecase/booking"
)

type Deps struct {
	Bookings *ucBooking.Service
	Health   *handlers.HealthHandler
	// RateLimit is applied to authenticated routes when set.
	RateLimit gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	bookingHandler := handlers.NewBookingHandler(deps.Bookings)

	// ======================================================
	// 🌍 PUBLIC
	// ======================================================
	if deps.Health != nil {
		r.GET("/health", deps.Health.Health)
	}

	// ======================================================
	// 🔐 AUTHENTICATED
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	if deps.RateLimit != nil {
		api.Use(deps.RateLimit)
	}

	bookings := api.Group("/bookings")
	{
		bookings.POST("", bookingHandler.Create)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.PATCH("/:id", bookingHandler.Update)
		bookings.DELETE("/:id", bookingHandler.Delete)

		bookings.POST("/:id/approve", bookingHandler.Approve)
		bookings.POST("/:id/reject", bookingHandler.Reject)
		bookings.POST("/:id/cancel", bookingHandler.Cancel)
		bookings.POST("/:id/complete", bookingHandler.Complete)
		bookings.POST("/:id/miss", bookingHandler.Miss)
		bookings.POST("/:id/reschedule", bookingHandler.Reschedule)

		bookings.GET("/:id/history", bookingHandler.History)
		bookings.GET("/:id/reschedules", bookingHandler.Reschedules)
		bookings.GET("/:id/events", bookingHandler.Events)
	}

	api.GET("/teachers/:id/bookings", bookingHandler.TeacherDay)
}
