package domain

import "time"

type Company struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255;not null" json:"name"`
	LogoURL string `gorm:"size:512" json:"logo_url"`
}

// Job is the scoring reference for a shortlisting run. Only IsOpen is
// mutated externally while a run is in flight.
type Job struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Requirements string    `gorm:"type:text" json:"requirements"`
	Location     string    `gorm:"size:255" json:"location"`
	IsOpen       bool      `gorm:"default:true" json:"isOpen"`
	RecruiterID  string    `gorm:"size:255;not null" json:"recruiter_id"`
	CompanyID    uint      `json:"company_id"`
	Company      *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
