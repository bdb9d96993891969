package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clinic-backend/internal/database/databasetest"
	"clinic-backend/internal/media"
	"clinic-backend/internal/models"
	"clinic-backend/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc      *Service
	db       *gorm.DB
	mediaDir string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "media")
	return &fixture{
		svc:      New(store.New(), media.NewStorage(dir), zerolog.Nop(), opts),
		db:       databasetest.Open(t),
		mediaDir: dir,
	}
}

var karimov = DoctorInput{FullName: "A. Karimov", Specialization: "Cardiology", PhoneNumber: "+998901234567"}

func aliyev(doctorID uint) PatientInput {
	return PatientInput{FullName: "B. Aliyev", BirthDate: "1990-01-01", PhoneNumber: "+998901112233", DoctorID: doctorID}
}

func upload(kind media.Kind, name, body string) media.Upload {
	return media.Upload{Kind: kind, Filename: name, Body: strings.NewReader(body)}
}

func (f *fixture) mediaFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.mediaDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestClinicScenario(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	doctor, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)
	assert.Equal(t, uint(1), doctor.ID)

	patient, err := f.svc.CreatePatient(ctx, f.db, aliyev(1))
	require.NoError(t, err)
	assert.Equal(t, uint(1), patient.ID)
	assert.Nil(t, patient.Image)
	assert.Nil(t, patient.Video)

	_, err = f.svc.CreatePatient(ctx, f.db, aliyev(999))
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = f.svc.AttachPatientMedia(ctx, f.db, 1, upload(media.KindImage, "photo.gif", "gif"))
	var unsupported *media.UnsupportedMediaTypeError
	require.ErrorAs(t, err, &unsupported)

	got, err := f.svc.GetPatient(ctx, f.db, 1)
	require.NoError(t, err)
	assert.Nil(t, got.Image)
	assert.Empty(t, f.mediaFiles(t))
}

func TestCreatePatient_UnknownDoctorPersistsNothing(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.CreatePatient(ctx, f.db, aliyev(999))
	require.ErrorIs(t, err, ErrDoctorNotFound)

	patients, err := f.svc.ListPatients(ctx, f.db)
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestDoctorCRUD(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	created, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)

	got, err := f.svc.GetDoctor(ctx, f.db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.FullName, got.FullName)
	assert.Equal(t, created.Specialization, got.Specialization)
	assert.Equal(t, created.PhoneNumber, got.PhoneNumber)

	updated, err := f.svc.UpdateDoctor(ctx, f.db, created.ID, DoctorInput{FullName: "New Name"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	assert.Empty(t, updated.Specialization, "omitted fields are overwritten, not kept")

	doctors, err := f.svc.ListDoctors(ctx, f.db)
	require.NoError(t, err)
	assert.Len(t, doctors, 1)

	require.NoError(t, f.svc.DeleteDoctor(ctx, f.db, created.ID))
	_, err = f.svc.GetDoctor(ctx, f.db, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteDoctor(ctx, f.db, created.ID), store.ErrNotFound)
}

func TestUpdatePatient(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	first, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)
	second, err := f.svc.CreateDoctor(ctx, f.db, DoctorInput{FullName: "C. Usmonov", Specialization: "Neurology", PhoneNumber: "+998907654321"})
	require.NoError(t, err)
	p, err := f.svc.CreatePatient(ctx, f.db, aliyev(first.ID))
	require.NoError(t, err)

	t.Run("omitted doctor keeps the current one", func(t *testing.T) {
		got, err := f.svc.UpdatePatient(ctx, f.db, p.ID, PatientUpdate{FullName: "B. Aliyeva", BirthDate: "1991-02-02", PhoneNumber: "+998900000001"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.DoctorID)
		assert.Equal(t, "B. Aliyeva", got.FullName)
		assert.Equal(t, "1991-02-02", got.BirthDate)
		assert.Equal(t, "+998900000001", got.PhoneNumber)
	})

	t.Run("unknown doctor is rejected", func(t *testing.T) {
		missing := uint(999)
		_, err := f.svc.UpdatePatient(ctx, f.db, p.ID, PatientUpdate{FullName: "x", BirthDate: "x", PhoneNumber: "x", DoctorID: &missing})
		require.ErrorIs(t, err, ErrDoctorNotFound)

		got, err := f.svc.GetPatient(ctx, f.db, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "B. Aliyeva", got.FullName, "failed update must not be applied")
	})

	t.Run("doctor can be changed", func(t *testing.T) {
		got, err := f.svc.UpdatePatient(ctx, f.db, p.ID, PatientUpdate{FullName: "x", BirthDate: "y", PhoneNumber: "z", DoctorID: &second.ID})
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.DoctorID)
	})

	t.Run("missing patient", func(t *testing.T) {
		_, err := f.svc.UpdatePatient(ctx, f.db, 999, PatientUpdate{FullName: "x", BirthDate: "y", PhoneNumber: "z"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreatePatientWithFiles(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)

	p, err := f.svc.CreatePatientWithFiles(ctx, f.db, aliyev(1),
		upload(media.KindImage, "face.JPG", "jpg-bytes"),
		upload(media.KindVideo, "walk.mp4", "mp4-bytes"),
	)
	require.NoError(t, err)
	require.NotNil(t, p.Image)
	require.NotNil(t, p.Video)
	assert.Equal(t, filepath.Join(f.mediaDir, "patient_1_image.jpg"), *p.Image)
	assert.Equal(t, filepath.Join(f.mediaDir, "patient_1_video.mp4"), *p.Video)

	data, err := os.ReadFile(*p.Image)
	require.NoError(t, err)
	assert.Equal(t, "jpg-bytes", string(data))
	assert.ElementsMatch(t, []string{"patient_1_image.jpg", "patient_1_video.mp4"}, f.mediaFiles(t))

	stored, err := f.svc.GetPatient(ctx, f.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p.Image, *stored.Image)
	assert.Equal(t, *p.Video, *stored.Video)
}

func TestCreatePatientWithFiles_NoFiles(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)

	p, err := f.svc.CreatePatientWithFiles(ctx, f.db, aliyev(1))
	require.NoError(t, err)
	assert.Nil(t, p.Image)
	assert.Nil(t, p.Video)
}

func TestCreatePatientWithFiles_RejectedFilePersistsNothing(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)

	_, err = f.svc.CreatePatientWithFiles(ctx, f.db, aliyev(1),
		upload(media.KindImage, "face.png", "png"),
		upload(media.KindVideo, "walk.avi", "avi"),
	)
	var unsupported *media.UnsupportedMediaTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "walk.avi", unsupported.Filename)

	patients, err := f.svc.ListPatients(ctx, f.db)
	require.NoError(t, err)
	assert.Empty(t, patients)
	assert.Empty(t, f.mediaFiles(t))
}

func TestCreatePatientWithFiles_UnknownDoctor(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.svc.CreatePatientWithFiles(context.Background(), f.db, aliyev(5), upload(media.KindImage, "a.png", "png"))
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.Empty(t, f.mediaFiles(t))
}

func TestAttachPatientMedia_ReplacesPreviousAsset(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)
	p, err := f.svc.CreatePatientWithFiles(ctx, f.db, aliyev(1), upload(media.KindImage, "a.jpg", "old"))
	require.NoError(t, err)

	_, err = f.svc.AttachPatientMedia(ctx, f.db, p.ID)
	assert.ErrorIs(t, err, ErrNoMedia)

	_, err = f.svc.AttachPatientMedia(ctx, f.db, 999, upload(media.KindImage, "a.png", "x"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated, err := f.svc.AttachPatientMedia(ctx, f.db, p.ID, upload(media.KindImage, "b.png", "new"))
	require.NoError(t, err)
	require.NotNil(t, updated.Image)
	assert.Equal(t, filepath.Join(f.mediaDir, "patient_1_image.png"), *updated.Image)
	assert.Nil(t, updated.Video)
	assert.Equal(t, []string{"patient_1_image.png"}, f.mediaFiles(t))
}

func TestDeletePatient_RemovesMedia(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	_, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)
	p, err := f.svc.CreatePatientWithFiles(ctx, f.db, aliyev(1), upload(media.KindVideo, "w.mp4", "v"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePatient(ctx, f.db, p.ID))
	assert.Empty(t, f.mediaFiles(t))

	assert.ErrorIs(t, f.svc.DeletePatient(ctx, f.db, p.ID), store.ErrNotFound)
	_, err = f.svc.GetPatient(ctx, f.db, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDoctor_Restrict(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	d, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)
	_, err = f.svc.CreatePatient(ctx, f.db, aliyev(d.ID))
	require.NoError(t, err)

	err = f.svc.DeleteDoctor(ctx, f.db, d.ID)
	require.ErrorIs(t, err, ErrDoctorHasPatients)

	_, err = f.svc.GetDoctor(ctx, f.db, d.ID)
	assert.NoError(t, err)
	patients, err := f.svc.ListDoctorPatients(ctx, f.db, d.ID)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}

func TestDeleteDoctor_Cascade(t *testing.T) {
	f := newFixture(t, Options{CascadeDoctorDelete: true})
	ctx := context.Background()
	d, err := f.svc.CreateDoctor(ctx, f.db, karimov)
	require.NoError(t, err)
	other, err := f.svc.CreateDoctor(ctx, f.db, DoctorInput{FullName: "Other", Specialization: "ENT", PhoneNumber: "1"})
	require.NoError(t, err)

	_, err = f.svc.CreatePatientWithFiles(ctx, f.db, aliyev(d.ID), upload(media.KindImage, "a.png", "x"))
	require.NoError(t, err)
	kept, err := f.svc.CreatePatient(ctx, f.db, aliyev(other.ID))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteDoctor(ctx, f.db, d.ID))

	patients, err := f.svc.ListPatients(ctx, f.db)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, kept.ID, patients[0].ID)
	assert.Empty(t, f.mediaFiles(t))

	_, err = f.svc.ListDoctorPatients(ctx, f.db, d.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetMediaPath(t *testing.T) {
	p := &models.Patient{}
	path := "x.png"
	assert.Nil(t, setMediaPath(p, media.KindImage, &path))
	assert.Equal(t, &path, p.Image)
	assert.Equal(t, &path, setMediaPath(p, media.KindImage, nil))
	assert.Nil(t, p.Image)
}
