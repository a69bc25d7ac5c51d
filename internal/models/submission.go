package models

import (
	"time"
)

// SubmissionRecord is one student's answer to one question block, keyed by
// (student, item, course, item type). Only the most recent record per key
// matters for export.
type SubmissionRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	StudentID   string    `json:"student_id" gorm:"size:255;index:idx_submission_key;not null"`
	ItemID      string    `json:"item_id" gorm:"size:255;index:idx_submission_key;not null"` // normalized block id
	CourseID    string    `json:"course_id" gorm:"size:255;index;not null"`
	ItemType    string    `json:"item_type" gorm:"size:64;not null"`
	Answer      string    `json:"answer" gorm:"type:text"`
	Attempt     int       `json:"attempt" gorm:"default:1"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"index;not null"`
}

func (SubmissionRecord) TableName() string {
	return "submissions"
}
