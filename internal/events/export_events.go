package events

import "time"

type EventType string

const (
	EventExportRequested EventType = "export.requested"
	EventExportCompleted EventType = "export.completed"
	EventProgress        EventType = "student.progress"
)

// ExportRequestedEvent asks the worker to run one answers export.
type ExportRequestedEvent struct {
	TaskID        string   `json:"task_id"`
	CourseID      string   `json:"course_id"`
	SourceBlockID string   `json:"source_block_id"`
	BlockTypes    []string `json:"block_types,omitempty"`
	StudentID     string   `json:"student_id,omitempty"`
	MatchString   string   `json:"match_string,omitempty"`
	GetRoot       bool     `json:"get_root"`
}

// ExportCompletedEvent announces the outcome of one export run.
type ExportCompletedEvent struct {
	TaskID          string  `json:"task_id"`
	ReportFilename  string  `json:"report_filename"`
	Error           string  `json:"error,omitempty"`
	GenerationTimeS float64 `json:"generation_time_s"`
}

// ProgressEvent notifies the host that a student has progressed on a block
// that submits implicitly per step.
type ProgressEvent struct {
	BlockID   string    `json:"block_id"`
	StudentID string    `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
}
