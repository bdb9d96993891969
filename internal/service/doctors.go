package service

import (
	"context"
	"errors"
	"fmt"

	"clinic-backend/internal/models"
	"clinic-backend/internal/store"

	"gorm.io/gorm"
)

// DoctorInput is the full set of writable doctor fields.
type DoctorInput struct {
	FullName       string
	Specialization string
	PhoneNumber    string
}

func (in DoctorInput) apply(d *models.Doctor) {
	d.FullName = in.FullName
	d.Specialization = in.Specialization
	d.PhoneNumber = in.PhoneNumber
}

func (s *Service) CreateDoctor(ctx context.Context, db *gorm.DB, in DoctorInput) (*models.Doctor, error) {
	d := &models.Doctor{}
	in.apply(d)
	if err := s.store.Doctors.Create(s.session(ctx, db), d); err != nil {
		return nil, err
	}
	s.logger(ctx).Info().Uint("doctor_id", d.ID).Msg("doctor created")
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, db *gorm.DB) ([]models.Doctor, error) {
	return s.store.Doctors.List(s.session(ctx, db))
}

func (s *Service) GetDoctor(ctx context.Context, db *gorm.DB, id uint) (*models.Doctor, error) {
	return s.store.Doctors.Get(s.session(ctx, db), id)
}

// UpdateDoctor overwrites every field of the doctor.
func (s *Service) UpdateDoctor(ctx context.Context, db *gorm.DB, id uint, in DoctorInput) (*models.Doctor, error) {
	return s.store.Doctors.Update(s.session(ctx, db), id, in.apply)
}

// DeleteDoctor removes a doctor. With patients still assigned it fails with
// ErrDoctorHasPatients, unless cascading is enabled, in which case the patients
// and their media go too.
func (s *Service) DeleteDoctor(ctx context.Context, db *gorm.DB, id uint) error {
	var orphans []string
	err := s.session(ctx, db).Transaction(func(tx *gorm.DB) error {
		if _, err := s.store.Doctors.Get(tx, id); err != nil {
			return err
		}
		patients, err := s.store.Patients.ListByDoctor(tx, id)
		if err != nil {
			return err
		}
		if len(patients) > 0 {
			if !s.opts.CascadeDoctorDelete {
				return fmt.Errorf("doctor %d has %d patient(s): %w", id, len(patients), ErrDoctorHasPatients)
			}
			if _, err := s.store.Patients.DeleteByDoctor(tx, id); err != nil {
				return err
			}
			for i := range patients {
				orphans = append(orphans, patients[i].MediaPaths()...)
			}
		}
		return s.store.Doctors.Delete(tx, id)
	})
	if errors.Is(err, store.ErrForeignKey) {
		// A patient was assigned between the check and the delete.
		return fmt.Errorf("doctor %d: %w", id, ErrDoctorHasPatients)
	}
	if err != nil {
		return err
	}

	s.removeFiles(ctx, orphans)
	s.logger(ctx).Info().Uint("doctor_id", id).Int("media_removed", len(orphans)).Msg("doctor deleted")
	return nil
}

// ListDoctorPatients returns the patients assigned to an existing doctor.
func (s *Service) ListDoctorPatients(ctx context.Context, db *gorm.DB, id uint) ([]models.Patient, error) {
	sess := s.session(ctx, db)
	if _, err := s.store.Doctors.Get(sess, id); err != nil {
		return nil, err
	}
	return s.store.Patients.ListByDoctor(sess, id)
}
