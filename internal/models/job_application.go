package models

import (
	"encoding/json"
	"time"
)

const (
	DefaultStatus = "Applied"
	DateLayout    = "2006-01-02"
)

type JobApplication struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          *uint     `gorm:"index" json:"user_id"` // Nullable for rows created before login existed
	User            *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	CompanyName     string    `gorm:"size:200;not null" json:"company_name"`
	PositionTitle   string    `gorm:"size:200;not null" json:"position_title"`
	Location        *string   `gorm:"size:200" json:"location"`
	JobType         *string   `gorm:"size:50" json:"job_type"`
	JobLevel        *string   `gorm:"size:50" json:"job_level"`
	ApplicationDate time.Time `gorm:"type:date;not null;index" json:"-"`
	Status          string    `gorm:"size:50;not null" json:"status"`
	JobDescription  *string   `gorm:"type:text" json:"job_description"`
	Notes           *string   `gorm:"type:text" json:"notes"`

	ResumePath          *string `gorm:"size:500" json:"-"`
	ResumeFilename      *string `gorm:"size:255" json:"resume_filename"`
	CoverLetterPath     *string `gorm:"size:500" json:"-"`
	CoverLetterFilename *string `gorm:"size:255" json:"cover_letter_filename"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (JobApplication) TableName() string {
	return "job_applications"
}

// MarshalJSON renders application_date as a calendar date.
func (a JobApplication) MarshalJSON() ([]byte, error) {
	type alias JobApplication
	return json.Marshal(struct {
		alias
		ApplicationDate string `json:"application_date"`
	}{
		alias:           alias(a),
		ApplicationDate: a.ApplicationDate.Format(DateLayout),
	})
}

// Document returns the pointer fields for kind. ok is false for an unknown kind.
func (a *JobApplication) Document(kind DocumentKind) (path, filename *string, ok bool) {
	switch kind {
	case DocumentResume:
		return a.ResumePath, a.ResumeFilename, true
	case DocumentCoverLetter:
		return a.CoverLetterPath, a.CoverLetterFilename, true
	}
	return nil, nil, false
}

// SetDocument sets both pointer fields for kind together; nil clears them.
func (a *JobApplication) SetDocument(kind DocumentKind, path, filename *string) {
	if path == nil || filename == nil {
		path, filename = nil, nil
	}
	switch kind {
	case DocumentResume:
		a.ResumePath, a.ResumeFilename = path, filename
	case DocumentCoverLetter:
		a.CoverLetterPath, a.CoverLetterFilename = path, filename
	}
}
