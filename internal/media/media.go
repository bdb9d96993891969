// Package media validates uploaded patient assets and stores them on disk
// under deterministic names (patient_<id>_<kind>.<ext>).
//
// Writes are two-phase: Stage copies the upload to a temporary file next to its
// destination, and Commit renames it into place once the database row that
// points at it has been committed.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the type of a patient asset.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var allowed = map[Kind]map[string]bool{
	KindImage: {"jpg": true, "jpeg": true, "png": true},
	KindVideo: {"mp4": true},
}

var rejectMessages = map[Kind]string{
	KindImage: "only JPG and PNG images are allowed",
	KindVideo: "only MP4 videos are allowed",
}

// UnsupportedMediaTypeError reports a file whose extension is not allow-listed.
type UnsupportedMediaTypeError struct {
	Kind     Kind
	Filename string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("%s: %q", rejectMessages[e.Kind], e.Filename)
}

// Upload is an uploaded file as received from the transport.
type Upload struct {
	Kind     Kind
	Filename string
	Body     io.Reader
}

// Extension returns the lower-cased text after the last dot of a file name.
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Validate checks the file name against the allow-list of kind and returns the
// normalized extension.
func Validate(kind Kind, filename string) (string, error) {
	exts, ok := allowed[kind]
	if !ok {
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
	ext := Extension(filename)
	if !exts[ext] {
		return "", &UnsupportedMediaTypeError{Kind: kind, Filename: filename}
	}
	return ext, nil
}

// FileName is the stored name of a patient asset.
func FileName(patientID uint, kind Kind, ext string) string {
	return fmt.Sprintf("patient_%d_%s.%s", patientID, kind, strings.ToLower(ext))
}

// Storage writes assets into a flat directory.
type Storage struct {
	dir string
}

func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

// Dir returns the directory assets are stored in.
func (s *Storage) Dir() string {
	return s.dir
}

// Path returns the destination path of a patient asset.
func (s *Storage) Path(patientID uint, kind Kind, ext string) string {
	return filepath.Join(s.dir, FileName(patientID, kind, ext))
}

// Staged is an upload written to a temporary file, waiting to be committed.
type Staged struct {
	Kind Kind
	Path string // final destination
	tmp  string
}

// Stage validates u and copies its body into a temporary file in the storage
// directory, creating the directory if needed.
func (s *Storage) Stage(patientID uint, u Upload) (*Staged, error) {
	ext, err := Validate(u.Kind, u.Filename)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	f, err := os.CreateTemp(s.dir, fmt.Sprintf(".patient_%d_%s_*.tmp", patientID, u.Kind))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, u.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write %s: %w", u.Kind, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close %s: %w", u.Kind, err)
	}

	return &Staged{
		Kind: u.Kind,
		Path: s.Path(patientID, u.Kind, ext),
		tmp:  f.Name(),
	}, nil
}

// Commit moves the staged file to its final path, replacing any previous asset.
func (st *Staged) Commit() error {
	if err := os.Rename(st.tmp, st.Path); err != nil {
		return fmt.Errorf("commit %s: %w", st.Kind, err)
	}
	return nil
}

// Discard removes the temporary file.
func (st *Staged) Discard() {
	os.Remove(st.tmp)
}

// Remove deletes a stored asset. A file that is already gone is not an error.
func (s *Storage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
