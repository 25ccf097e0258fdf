package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Schedules   *ScheduleHandler
	Constraints *ConstraintHandler
	Generation  *GenerationHandler
	Export      *ExportHandler
}

// RegisterRoutes mounts the API. throttle guards the generation endpoints and may be nil.
func RegisterRoutes(api gin.IRouter, h Handlers, throttle gin.HandlerFunc) {
	schedules := api.Group("/schedules")
	schedules.POST("", h.Schedules.Create)
	schedules.GET("", h.Schedules.List)
	schedules.GET("/:id", h.Schedules.Get)
	schedules.GET("/:id/sessions", h.Schedules.Sessions)
	schedules.POST("/:id/sessions", h.Schedules.AddSession)
	schedules.GET("/:id/validation", h.Schedules.Validate)
	schedules.POST("/:id/publish", h.Schedules.Publish)
	schedules.POST("/:id/archive", h.Schedules.Archive)
	schedules.GET("/:id/constraint-violations", h.Constraints.ValidateSchedule)
	schedules.GET("/:id/export", h.Export.Export)

	sessions := api.Group("/sessions")
	sessions.PATCH("/:id", h.Schedules.UpdateSession)
	sessions.DELETE("/:id", h.Schedules.RemoveSession)

	api.POST("/clashes/detect", h.Schedules.DetectClashes)

	constraints := api.Group("/constraints")
	constraints.GET("", h.Constraints.List)
	constraints.POST("", h.Constraints.Create)
	constraints.POST("/validate", h.Constraints.ValidateSessions)
	constraints.GET("/:id", h.Constraints.Get)
	constraints.PUT("/:id", h.Constraints.Update)
	constraints.PATCH("/:id/active", h.Constraints.SetActive)
	constraints.DELETE("/:id", h.Constraints.Delete)

	timetables := api.Group("/timetables")
	if throttle != nil {
		timetables.POST("/generate", throttle, h.Generation.Generate)
		timetables.POST("/generation-jobs", throttle, h.Generation.SubmitJob)
	} else {
		timetables.POST("/generate", h.Generation.Generate)
		timetables.POST("/generation-jobs", h.Generation.SubmitJob)
	}
	timetables.GET("/generation-jobs/:id", h.Generation.JobStatus)
	timetables.DELETE("/generation-jobs/:id", h.Generation.CancelJob)
}
