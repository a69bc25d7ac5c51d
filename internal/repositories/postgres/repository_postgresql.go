package postgres

import (
	"context"

	"github.com/edcraft/mentoring-engine/internal/repositories"
	"gorm.io/gorm"
)

type PostgreSQLRepository struct {
	db         *gorm.DB
	content    repositories.ContentRepository
	submission repositories.SubmissionRepository
	user       repositories.UserRepository
	report     repositories.ReportRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &PostgreSQLRepository{
		db:         db,
		content:    NewContentPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
		user:       NewUserPostgreSQL(db),
		report:     NewReportPostgreSQL(db),
	}
}

func (r *PostgreSQLRepository) Content() repositories.ContentRepository       { return r.content }
func (r *PostgreSQLRepository) Submission() repositories.SubmissionRepository { return r.submission }
func (r *PostgreSQLRepository) User() repositories.UserRepository             { return r.user }
func (r *PostgreSQLRepository) Report() repositories.ReportRepository         { return r.report }

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
