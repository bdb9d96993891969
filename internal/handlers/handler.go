package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"clinic-backend/internal/media"
	"clinic-backend/internal/service"
	"clinic-backend/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the clinic API. The database handle is passed to the service
// on every request, bound to the request context.
type Handler struct {
	svc       *service.Service
	db        *gorm.DB
	maxUpload int64
}

func NewHandler(svc *service.Service, db *gorm.DB, maxUpload int64) *Handler {
	return &Handler{svc: svc, db: db, maxUpload: maxUpload}
}

// parseID reads a numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name + " format"})
		return 0, false
	}
	return uint(id), true
}

// bindError answers a request whose body could not be bound or validated.
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Upload too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
}

// respondError maps service errors onto HTTP responses. notFound is the
// message used when the addressed record does not exist.
func respondError(c *gin.Context, err error, notFound string) {
	var unsupported *media.UnsupportedMediaTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrDoctorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Doctor not found"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusBadRequest, gin.H{"message": unsupported.Error()})
	case errors.Is(err, service.ErrNoMedia):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Supply an image or a video"})
	case errors.Is(err, service.ErrDoctorHasPatients):
		c.JSON(http.StatusConflict, gin.H{"message": "Doctor still has patients"})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Upload too large"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
