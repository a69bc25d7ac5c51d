package postgres

import (
	"context"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
	"gorm.io/gorm"
)

type ContentPostgreSQL struct {
	db *gorm.DB
}

func NewContentPostgreSQL(db *gorm.DB) repositories.ContentRepository {
	return &ContentPostgreSQL{db: db}
}

func (c ContentPostgreSQL) Resolve(ctx context.Context, id string) (*models.ContentNode, error) {
	var node models.ContentNode
	normalized := models.NormalizeID(id)
	if err := c.db.WithContext(ctx).First(&node, "id = ?", normalized).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (c ContentPostgreSQL) ResolveByName(ctx context.Context, courseID, name string) (*models.ContentNode, error) {
	var node models.ContentNode
	if err := c.db.WithContext(ctx).
		Where("course_id = ? AND name = ?", courseID, name).
		First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (c ContentPostgreSQL) ChildrenOf(ctx context.Context, node *models.ContentNode) ([]string, error) {
	var ids []string
	if err := c.db.WithContext(ctx).
		Model(&models.ContentNode{}).
		Where("parent_id = ?", node.NormalizedID()).
		Order("position ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (c ContentPostgreSQL) ParentOf(ctx context.Context, node *models.ContentNode) (*models.ContentNode, error) {
	if node.ParentID == nil || *node.ParentID == "" {
		return nil, nil
	}
	return c.Resolve(ctx, *node.ParentID)
}
