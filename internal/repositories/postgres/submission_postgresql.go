package postgres

import (
	"context"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s SubmissionPostgreSQL) Latest(ctx context.Context, studentID, itemID, courseID, itemType string) (*models.SubmissionRecord, error) {
	var record models.SubmissionRecord
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND item_id = ? AND course_id = ? AND item_type = ?",
			studentID, itemID, courseID, itemType).
		Order("submitted_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s SubmissionPostgreSQL) LatestAll(ctx context.Context, courseID, itemID, itemType string) ([]*models.SubmissionRecord, error) {
	var records []*models.SubmissionRecord
	// One query per item, newest first; the newest row per student wins.
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND item_id = ? AND item_type = ?", courseID, itemID, itemType).
		Order("submitted_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(records))
	latest := make([]*models.SubmissionRecord, 0, len(records))
	for _, record := range records {
		if seen[record.StudentID] {
			continue
		}
		seen[record.StudentID] = true
		latest = append(latest, record)
	}
	return latest, nil
}
