package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"clinic-backend/internal/media"
	"clinic-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// --- Structs for Request Binding ---

type CreatePatientRequest struct {
	FullName    string `json:"full_name" form:"full_name" binding:"required"`
	BirthDate   string `json:"birth_date" form:"birth_date" binding:"required"`
	PhoneNumber string `json:"phone_number" form:"phone_number" binding:"required"`
	DoctorID    uint   `json:"doctor_id" form:"doctor_id" binding:"required"`
}

// UpdatePatientRequest replaces every text field; doctor_id may be omitted to
// keep the current doctor.
type UpdatePatientRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	BirthDate   string `json:"birth_date" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	DoctorID    *uint  `json:"doctor_id" binding:"omitempty,gt=0"`
}

func (r CreatePatientRequest) input() service.PatientInput {
	return service.PatientInput{
		FullName:    r.FullName,
		BirthDate:   r.BirthDate,
		PhoneNumber: r.PhoneNumber,
		DoctorID:    r.DoctorID,
	}
}

const patientNotFound = "Patient not found"

// --- Handler Functions ---

func (h *Handler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	patient, err := h.svc.CreatePatient(c.Request.Context(), h.db, req.input())
	if err != nil {
		respondError(c, err, patientNotFound)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.svc.ListPatients(c.Request.Context(), h.db)
	if err != nil {
		respondError(c, err, patientNotFound)
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := parseID(c, "patient_id")
	if !ok {
		return
	}
	patient, err := h.svc.GetPatient(c.Request.Context(), h.db, id)
	if err != nil {
		respondError(c, err, patientNotFound)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := parseID(c, "patient_id")
	if !ok {
		return
	}
	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	patient, err := h.svc.UpdatePatient(c.Request.Context(), h.db, id, service.PatientUpdate{
		FullName:    req.FullName,
		BirthDate:   req.BirthDate,
		PhoneNumber: req.PhoneNumber,
		DoctorID:    req.DoctorID,
	})
	if err != nil {
		respondError(c, err, patientNotFound)
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := parseID(c, "patient_id")
	if !ok {
		return
	}
	if err := h.svc.DeletePatient(c.Request.Context(), h.db, id); err != nil {
		respondError(c, err, patientNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted successfully"})
}

// CreatePatientWithFiles takes the patient fields as multipart form values plus
// optional "image" and "video" files.
func (h *Handler) CreatePatientWithFiles(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var req CreatePatientRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	uploads, closeAll, err := formUploads(c)
	if err != nil {
		bindError(c, err)
		return
	}
	defer closeAll()

	patient, err := h.svc.CreatePatientWithFiles(c.Request.Context(), h.db, req.input(), uploads...)
	if err != nil {
		respondError(c, err, patientNotFound)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// AttachPatientMedia stores an image and/or video for an existing patient.
func (h *Handler) AttachPatientMedia(c *gin.Context) {
	id, ok := parseID(c, "patient_id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	uploads, closeAll, err := formUploads(c)
	if err != nil {
		bindError(c, err)
		return
	}
	defer closeAll()

	patient, err := h.svc.AttachPatientMedia(c.Request.Context(), h.db, id, uploads...)
	if err != nil {
		respondError(c, err, patientNotFound)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// formUploads opens the optional image and video parts of a multipart request.
func formUploads(c *gin.Context) ([]media.Upload, func(), error) {
	var (
		uploads []media.Upload
		files   []multipart.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, kind := range []media.Kind{media.KindImage, media.KindVideo} {
		header, err := c.FormFile(string(kind))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
		uploads = append(uploads, media.Upload{Kind: kind, Filename: header.Filename, Body: f})
	}
	return uploads, closeAll, nil
}
