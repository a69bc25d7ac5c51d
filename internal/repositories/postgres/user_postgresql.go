package postgres

import (
	"context"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u UserPostgreSQL) ByAnonymizedID(ctx context.Context, anonymizedID string) (*models.AnonymousUserMap, error) {
	var entry models.AnonymousUserMap
	if err := u.db.WithContext(ctx).First(&entry, "anonymized_id = ?", anonymizedID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
