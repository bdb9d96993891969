// Package service enforces the cross-record rules of the clinic: every patient
// references an existing doctor, uploads are validated before anything is
// persisted, and doctors with patients are deleted according to policy.
package service

import (
	"context"
	"errors"

	"clinic-backend/internal/media"
	"clinic-backend/internal/store"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrDoctorHasPatients = errors.New("doctor has patients")
	ErrNoMedia           = errors.New("no media files supplied")
)

// Options tune service behavior.
type Options struct {
	// CascadeDoctorDelete deletes a doctor's patients together with the doctor.
	// When false, deleting a doctor that still has patients fails.
	CascadeDoctorDelete bool
}

// Service is the request-facing API over the store and media storage. Every
// method takes the database handle to run against; it is bound to ctx before use.
type Service struct {
	store *store.Store
	media *media.Storage
	log   zerolog.Logger
	opts  Options
}

func New(st *store.Store, storage *media.Storage, logger zerolog.Logger, opts Options) *Service {
	return &Service{
		store: st,
		media: storage,
		log:   logger,
		opts:  opts,
	}
}

func (s *Service) session(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx)
}

// logger prefers the request logger carried by ctx.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}

// removeFiles deletes stored assets whose records are gone. Failures leave an
// orphaned file and are only logged.
func (s *Service) removeFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.media.Remove(p); err != nil {
			s.logger(ctx).Warn().Err(err).Str("path", p).Msg("failed to remove media file")
		}
	}
}
