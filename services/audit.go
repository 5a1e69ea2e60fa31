package services

import (
	"encoding/json"

	"github.com/plateful/plateful/models"
	"gorm.io/gorm"
)

// ActivityAuditSink persists audit events to the activity_logs table. It
// writes through its own connection, outside any caller transaction, as an
// append-only sink.
type ActivityAuditSink struct {
	db *gorm.DB
}

// NewActivityAuditSink creates a new ActivityAuditSink
func NewActivityAuditSink(db *gorm.DB) *ActivityAuditSink {
	return &ActivityAuditSink{db: db}
}

// RecordAudit appends one activity log row
func (s *ActivityAuditSink) RecordAudit(subjectType string, subjectID uint, causerID *uint, event string, properties map[string]interface{}) error {
	props, err := json.Marshal(properties)
	if err != nil {
		return err
	}

	log := models.ActivityLog{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		CauserID:    causerID,
		Event:       event,
		Properties:  string(props),
	}
	return s.db.Create(&log).Error
}
