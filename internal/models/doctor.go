package models

// Doctor defines the structure for doctor records.
type Doctor struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	FullName       string `json:"full_name" gorm:"not null"`
	Specialization string `json:"specialization" gorm:"not null"`
	PhoneNumber    string `json:"phone_number" gorm:"not null"`

	// Lookup only; a doctor does not own its patients.
	Patients []Patient `json:"-" gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
