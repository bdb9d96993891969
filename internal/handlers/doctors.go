package handlers

import (
	"net/http"

	"clinic-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type DoctorRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
	PhoneNumber    string `json:"phone_number" binding:"required"`
}

func (r DoctorRequest) input() service.DoctorInput {
	return service.DoctorInput{
		FullName:       r.FullName,
		Specialization: r.Specialization,
		PhoneNumber:    r.PhoneNumber,
	}
}

const doctorNotFound = "Doctor not found"

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	doctor, err := h.svc.CreateDoctor(c.Request.Context(), h.db, req.input())
	if err != nil {
		respondError(c, err, doctorNotFound)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.svc.ListDoctors(c.Request.Context(), h.db)
	if err != nil {
		respondError(c, err, doctorNotFound)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := parseID(c, "doctor_id")
	if !ok {
		return
	}
	doctor, err := h.svc.GetDoctor(c.Request.Context(), h.db, id)
	if err != nil {
		respondError(c, err, doctorNotFound)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := parseID(c, "doctor_id")
	if !ok {
		return
	}
	var req DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	doctor, err := h.svc.UpdateDoctor(c.Request.Context(), h.db, id, req.input())
	if err != nil {
		respondError(c, err, doctorNotFound)
		return
	}
	c.JSON(http.StatusOK, doctor)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := parseID(c, "doctor_id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDoctor(c.Request.Context(), h.db, id); err != nil {
		respondError(c, err, doctorNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted successfully"})
}

func (h *Handler) ListDoctorPatients(c *gin.Context) {
	id, ok := parseID(c, "doctor_id")
	if !ok {
		return
	}
	patients, err := h.svc.ListDoctorPatients(c.Request.Context(), h.db, id)
	if err != nil {
		respondError(c, err, doctorNotFound)
		return
	}
	c.JSON(http.StatusOK, patients)
}
