package domain

import "time"

// Application statuses as written by the external job board.
const (
	StatusApplied      = "applied"
	StatusInterviewing = "interviewing"
	StatusHired        = "hired"
	StatusRejected     = "rejected"
)

// Application is created externally when a candidate applies. The
// shortlisting pipeline writes AIMatchScore and AIInsights exactly once per
// completed evaluation; re-running a job overwrites both.
type Application struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	JobID        uint      `gorm:"not null;index" json:"job_id"`
	CandidateID  string    `gorm:"size:255;not null" json:"candidate_id"`
	Name         string    `gorm:"size:255" json:"name"`
	Email        string    `gorm:"size:255" json:"email"`
	Resume       string    `gorm:"size:512" json:"resume"`
	Experience   string    `gorm:"type:text" json:"experience"`
	Education    string    `gorm:"type:text" json:"education"`
	Skills       string    `gorm:"type:text" json:"skills"`
	Status       string    `gorm:"type:enum('applied','interviewing','hired','rejected');default:'applied'" json:"status"`
	AIMatchScore *int      `gorm:"column:ai_match_score" json:"ai_match_score"`
	AIInsights   *string   `gorm:"column:ai_insights;type:json" json:"ai_insights"` // pointer so it can be NULL
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
