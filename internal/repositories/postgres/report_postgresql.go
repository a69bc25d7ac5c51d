package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
	"gorm.io/gorm"
)

type ReportPostgreSQL struct {
	db *gorm.DB
}

func NewReportPostgreSQL(db *gorm.DB) repositories.ReportRepository {
	return &ReportPostgreSQL{db: db}
}

func (r ReportPostgreSQL) Store(ctx context.Context, courseID, filename string, rows [][]string) error {
	encoded, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode report rows: %w", err)
	}

	report := &models.Report{
		CourseID: courseID,
		Filename: filename,
		Rows:     encoded,
	}
	return r.db.WithContext(ctx).Create(report).Error
}

func (r ReportPostgreSQL) Get(ctx context.Context, courseID, filename string) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND filename = ?", courseID, filename).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}
