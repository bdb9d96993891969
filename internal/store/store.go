package store

import (
	"clinic-backend/internal/models"

	"gorm.io/gorm"
)

// DoctorRepository persists doctors.
type DoctorRepository struct {
	*Repository[models.Doctor]
}

// PatientRepository persists patients.
type PatientRepository struct {
	*Repository[models.Patient]
}

// Store groups the repositories of the clinic.
type Store struct {
	Doctors  *DoctorRepository
	Patients *PatientRepository
}

func New() *Store {
	return &Store{
		Doctors:  &DoctorRepository{NewRepository[models.Doctor]("doctor")},
		Patients: &PatientRepository{NewRepository[models.Patient]("patient")},
	}
}

// ListByDoctor returns the patients assigned to a doctor.
func (r *PatientRepository) ListByDoctor(db *gorm.DB, doctorID uint) ([]models.Patient, error) {
	patients := []models.Patient{}
	if err := db.Where("doctor_id = ?", doctorID).Order("id").Find(&patients).Error; err != nil {
		return nil, r.wrap("list by doctor", err)
	}
	return patients, nil
}

// CountByDoctor returns how many patients reference a doctor.
func (r *PatientRepository) CountByDoctor(db *gorm.DB, doctorID uint) (int64, error) {
	var count int64
	if err := db.Model(&models.Patient{}).Where("doctor_id = ?", doctorID).Count(&count).Error; err != nil {
		return 0, r.wrap("count by doctor", err)
	}
	return count, nil
}

// DeleteByDoctor removes every patient of a doctor and returns the number removed.
func (r *PatientRepository) DeleteByDoctor(db *gorm.DB, doctorID uint) (int64, error) {
	res := db.Where("doctor_id = ?", doctorID).Delete(&models.Patient{})
	if res.Error != nil {
		return 0, r.wrap("delete by doctor", res.Error)
	}
	return res.RowsAffected, nil
}
