package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Gin_postgres_redis_tool_issuance/models"
)

func (r *Repo) GetTool(ctx context.Context, code string) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).First(&t, "tool_code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *Repo) GetToolByID(ctx context.Context, id uint) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *Repo) ListTools(ctx context.Context) ([]models.Tool, error) {
	var tools []models.Tool
	err := r.DB.WithContext(ctx).Order("tool_code").Find(&tools).Error
	return tools, err
}

func (r *Repo) CreateTool(ctx context.Context, t *models.Tool) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

// PutTool overwrites the row with t.ID, code included.
func (r *Repo) PutTool(ctx context.Context, t *models.Tool) error {
	return r.updateAll(ctx, t)
}

// ReplaceTools upserts by tool_code in one transaction.
func (r *Repo) ReplaceTools(ctx context.Context, tools []models.Tool) error {
	if len(tools) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tool_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "quantity", "available_quantity", "updated_at"}),
		}).Create(&tools).Error
	})
}
