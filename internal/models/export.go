package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExportHeader is the fixed header row of every answers export.
var ExportHeader = []string{"Section", "Subsection", "Unit", "Type", "Question", "Answer", "Username"}

// DisplayDataLimit caps the preview rows returned alongside an export result.
const DisplayDataLimit = 1000

// ExportRequest describes one export invocation. StudentID empty means all
// students; BlockTypes empty means all answer-bearing types.
type ExportRequest struct {
	TaskID        string   `json:"task_id" validate:"required"`
	CourseID      string   `json:"course_id" validate:"required"`
	SourceBlockID string   `json:"source_block_id" validate:"required"`
	BlockTypes    []string `json:"block_types" validate:"omitempty,dive,block_type"`
	StudentID     string   `json:"student_id"`
	MatchString   string   `json:"match_string"`
	GetRoot       bool     `json:"get_root"`
}

// ExportResult is the structured outcome of an export run. The job never
// raises past the task boundary: failures land in Error instead.
type ExportResult struct {
	Error           string     `json:"error,omitempty"`
	ReportFilename  string     `json:"report_filename"`
	StartTimestamp  float64    `json:"start_timestamp"`
	GenerationTimeS float64    `json:"generation_time_s"`
	DisplayData     [][]string `json:"display_data"`
}

// Report is the persisted full row set of one export, header row included.
type Report struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CourseID  string         `json:"course_id" gorm:"size:255;index;not null"`
	Filename  string         `json:"filename" gorm:"size:255;uniqueIndex;not null"`
	Rows      datatypes.JSON `json:"rows"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Report) TableName() string {
	return "export_reports"
}
