package models

import "time"

// ActivityLog is an append-only audit record. Properties carries a JSON
// object describing the event.
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectType string    `json:"subject_type" gorm:"index:idx_activity_subject"`
	SubjectID   uint      `json:"subject_id" gorm:"index:idx_activity_subject"`
	CauserID    *uint     `json:"causer_id,omitempty"`
	Event       string    `json:"event" gorm:"index"`
	Properties  string    `json:"properties" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}
