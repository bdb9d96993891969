package models

// Patient defines the structure for patient records.
type Patient struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	FullName    string  `json:"full_name" gorm:"not null"`
	BirthDate   string  `json:"birth_date" gorm:"not null"`
	PhoneNumber string  `json:"phone_number" gorm:"not null"`
	DoctorID    uint    `json:"doctor_id" gorm:"not null;index"`
	Image       *string `json:"image"` // Stored path, nil until an upload succeeds
	Video       *string `json:"video"`
}

// MediaPaths returns the stored asset paths of the patient.
func (p *Patient) MediaPaths() []string {
	var paths []string
	if p.Image != nil && *p.Image != "" {
		paths = append(paths, *p.Image)
	}
	if p.Video != nil && *p.Video != "" {
		paths = append(paths, *p.Video)
	}
	return paths
}
