package domain

import "time"

// Candidate is the denormalized, ranked view returned to callers: an
// Application joined with its Evaluation plus derived display fields. Built
// fresh on every shortlisting call, never persisted.
type Candidate struct {
	ID            uint      `json:"id"`
	ApplicationID uint      `json:"applicationId"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Avatar        *string   `json:"avatar"`
	Title         string    `json:"title"`
	Experience    string    `json:"experience"`
	Skills        []string  `json:"skills"`
	Match         int       `json:"match"`
	Highlights    []string  `json:"highlights"`
	Insights      string    `json:"insights"`
	Strengths     []string  `json:"strengths"`
	Concerns      []string  `json:"concerns"`
	AppliedDate   time.Time `json:"appliedDate"`
	Status        string    `json:"status"`
}
