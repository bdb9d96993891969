package service

import (
	"context"
	"errors"
	"fmt"

	"clinic-backend/internal/media"
	"clinic-backend/internal/models"
	"clinic-backend/internal/store"

	"gorm.io/gorm"
)

// PatientInput holds the fields of a new patient.
type PatientInput struct {
	FullName    string
	BirthDate   string
	PhoneNumber string
	DoctorID    uint
}

// PatientUpdate replaces the text fields of a patient. A nil DoctorID keeps the
// current doctor. Stored media paths are not touched.
type PatientUpdate struct {
	FullName    string
	BirthDate   string
	PhoneNumber string
	DoctorID    *uint
}

func (in PatientInput) patient() *models.Patient {
	return &models.Patient{
		FullName:    in.FullName,
		BirthDate:   in.BirthDate,
		PhoneNumber: in.PhoneNumber,
		DoctorID:    in.DoctorID,
	}
}

// requireDoctor fails with ErrDoctorNotFound unless the doctor exists.
func (s *Service) requireDoctor(db *gorm.DB, doctorID uint) error {
	ok, err := s.store.Doctors.Exists(db, doctorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("doctor %d: %w", doctorID, ErrDoctorNotFound)
	}
	return nil
}

// doctorRef turns a foreign key violation on write into ErrDoctorNotFound.
func doctorRef(err error, doctorID uint) error {
	if errors.Is(err, store.ErrForeignKey) {
		return fmt.Errorf("doctor %d: %w", doctorID, ErrDoctorNotFound)
	}
	return err
}

// CreatePatient inserts a patient after checking that its doctor exists.
func (s *Service) CreatePatient(ctx context.Context, db *gorm.DB, in PatientInput) (*models.Patient, error) {
	sess := s.session(ctx, db)
	if err := s.requireDoctor(sess, in.DoctorID); err != nil {
		return nil, err
	}
	p := in.patient()
	if err := s.store.Patients.Create(sess, p); err != nil {
		return nil, doctorRef(err, in.DoctorID)
	}
	s.logger(ctx).Info().Uint("patient_id", p.ID).Uint("doctor_id", p.DoctorID).Msg("patient created")
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, db *gorm.DB) ([]models.Patient, error) {
	return s.store.Patients.List(s.session(ctx, db))
}

func (s *Service) GetPatient(ctx context.Context, db *gorm.DB, id uint) (*models.Patient, error) {
	return s.store.Patients.Get(s.session(ctx, db), id)
}

// UpdatePatient overwrites the patient's fields. A changed doctor is checked first.
func (s *Service) UpdatePatient(ctx context.Context, db *gorm.DB, id uint, in PatientUpdate) (*models.Patient, error) {
	var updated *models.Patient
	err := s.session(ctx, db).Transaction(func(tx *gorm.DB) error {
		p, err := s.store.Patients.Get(tx, id)
		if err != nil {
			return err
		}
		if in.DoctorID != nil && *in.DoctorID != p.DoctorID {
			if err := s.requireDoctor(tx, *in.DoctorID); err != nil {
				return err
			}
			p.DoctorID = *in.DoctorID
		}
		p.FullName = in.FullName
		p.BirthDate = in.BirthDate
		p.PhoneNumber = in.PhoneNumber
		if err := s.store.Patients.Save(tx, p); err != nil {
			return doctorRef(err, p.DoctorID)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePatient removes the patient and then its stored media.
func (s *Service) DeletePatient(ctx context.Context, db *gorm.DB, id uint) error {
	sess := s.session(ctx, db)
	p, err := s.store.Patients.Get(sess, id)
	if err != nil {
		return err
	}
	if err := s.store.Patients.Delete(sess, id); err != nil {
		return err
	}
	s.removeFiles(ctx, p.MediaPaths())
	s.logger(ctx).Info().Uint("patient_id", id).Msg("patient deleted")
	return nil
}

// CreatePatientWithFiles creates a patient and stores the supplied image and
// video. The doctor and every file are checked before anything is written, so
// a rejected file leaves neither a record nor a file behind.
func (s *Service) CreatePatientWithFiles(ctx context.Context, db *gorm.DB, in PatientInput, uploads ...media.Upload) (*models.Patient, error) {
	if err := s.requireDoctor(s.session(ctx, db), in.DoctorID); err != nil {
		return nil, err
	}
	if err := validateUploads(uploads); err != nil {
		return nil, err
	}
	p, err := s.storeMedia(ctx, db, uploads, func(tx *gorm.DB) (*models.Patient, error) {
		p := in.patient()
		if err := s.store.Patients.Create(tx, p); err != nil {
			return nil, doctorRef(err, in.DoctorID)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(ctx).Info().Uint("patient_id", p.ID).Int("files", len(uploads)).Msg("patient created with files")
	return p, nil
}

// AttachPatientMedia stores an image and/or video for an existing patient,
// replacing earlier assets of the same kind.
func (s *Service) AttachPatientMedia(ctx context.Context, db *gorm.DB, id uint, uploads ...media.Upload) (*models.Patient, error) {
	if len(uploads) == 0 {
		return nil, ErrNoMedia
	}
	if err := validateUploads(uploads); err != nil {
		return nil, err
	}
	return s.storeMedia(ctx, db, uploads, func(tx *gorm.DB) (*models.Patient, error) {
		return s.store.Patients.Get(tx, id)
	})
}

func validateUploads(uploads []media.Upload) error {
	for _, u := range uploads {
		if _, err := media.Validate(u.Kind, u.Filename); err != nil {
			return err
		}
	}
	return nil
}

type stagedAsset struct {
	*media.Staged
	previous *string
}

// storeMedia loads or creates the patient inside a transaction, stages every
// upload and records the final paths. Files are renamed into place only after
// the transaction commits.
func (s *Service) storeMedia(ctx context.Context, db *gorm.DB, uploads []media.Upload, load func(tx *gorm.DB) (*models.Patient, error)) (*models.Patient, error) {
	var (
		patient *models.Patient
		staged  []stagedAsset
	)
	err := s.session(ctx, db).Transaction(func(tx *gorm.DB) error {
		p, err := load(tx)
		if err != nil {
			return err
		}
		for _, u := range uploads {
			st, err := s.media.Stage(p.ID, u)
			if err != nil {
				return err
			}
			path := st.Path
			staged = append(staged, stagedAsset{Staged: st, previous: setMediaPath(p, st.Kind, &path)})
		}
		if err := s.store.Patients.Save(tx, p); err != nil {
			return err
		}
		patient = p
		return nil
	})
	if err != nil {
		for _, st := range staged {
			st.Discard()
		}
		return nil, err
	}

	var (
		commitErr error
		replaced  []string
	)
	for _, st := range staged {
		if err := st.Commit(); err != nil {
			st.Discard()
			setMediaPath(patient, st.Kind, st.previous)
			commitErr = errors.Join(commitErr, err)
			continue
		}
		if st.previous != nil && *st.previous != st.Path {
			replaced = append(replaced, *st.previous)
		}
	}
	if commitErr != nil {
		// Point the record back at what is actually on disk.
		if err := s.store.Patients.Save(s.session(ctx, db), patient); err != nil {
			s.logger(ctx).Error().Err(err).Uint("patient_id", patient.ID).Msg("failed to revert media paths")
		}
		return nil, commitErr
	}
	s.removeFiles(ctx, replaced)
	return patient, nil
}

// setMediaPath sets the image or video path and returns the previous value.
func setMediaPath(p *models.Patient, kind media.Kind, path *string) *string {
	var prev *string
	switch kind {
	case media.KindImage:
		prev, p.Image = p.Image, path
	case media.KindVideo:
		prev, p.Video = p.Video, path
	}
	return prev
}
