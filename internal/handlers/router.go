package handlers

import (
	"context"
	"net/http"
	"time"

	"clinic-backend/internal/database"
	"clinic-backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterConfig carries what the router needs beyond the handler itself.
type RouterConfig struct {
	CORSOrigins []string
	MediaDir    string // served read-only under /media when set
}

// NewRouter builds the gin engine with middleware and all clinic routes.
func NewRouter(h *Handler, logger zerolog.Logger, rc RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	if len(rc.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  rc.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", middleware.RequestIDHeader},
			ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", h.Health)

	doctors := r.Group("/doctors")
	doctors.POST("/", h.CreateDoctor)
	doctors.GET("/", h.ListDoctors)
	doctors.GET("/:doctor_id", h.GetDoctor)
	doctors.PUT("/:doctor_id", h.UpdateDoctor)
	doctors.DELETE("/:doctor_id", h.DeleteDoctor)
	doctors.GET("/:doctor_id/patients", h.ListDoctorPatients)

	patients := r.Group("/patients")
	patients.POST("/", h.CreatePatient)
	patients.GET("/", h.ListPatients)
	patients.POST("/upload/", h.CreatePatientWithFiles)
	patients.GET("/:patient_id", h.GetPatient)
	patients.PUT("/:patient_id", h.UpdatePatient)
	patients.DELETE("/:patient_id", h.DeletePatient)
	patients.PUT("/:patient_id/media", h.AttachPatientMedia)

	if rc.MediaDir != "" {
		r.Static("/media", rc.MediaDir)
	}
	return r
}

// Health reports whether the database is reachable.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := database.Ping(ctx, h.db); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
