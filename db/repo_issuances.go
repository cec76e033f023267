package db

import (
	"context"

	"gorm.io/gorm"

	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

func (r *Repo) GetIssuance(ctx context.Context, id int64) (*models.Issuance, error) {
	var is models.Issuance
	if err := r.DB.WithContext(ctx).First(&is, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &is, nil
}

func (r *Repo) CreateIssuance(ctx context.Context, is *models.Issuance) error {
	return translate(r.DB.WithContext(ctx).Create(is).Error)
}

func (r *Repo) PutIssuance(ctx context.Context, is *models.Issuance) error {
	return r.updateAll(ctx, is)
}

// PutIssuances writes the batch in one transaction; a missing row rolls the
// whole batch back.
func (r *Repo) PutIssuances(ctx context.Context, batch []models.Issuance) error {
	if len(batch) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &Repo{DB: tx}
		for i := range batch {
			if err := txRepo.updateAll(ctx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) ListIssuances(ctx context.Context, f store.IssuanceFilter) ([]models.Issuance, error) {
	var rows []models.Issuance
	if err := issuanceQuery(r.DB.WithContext(ctx), f).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// issuanceQuery turns f into SQL conditions matching IssuanceFilter.Match.
func issuanceQuery(db *gorm.DB, f store.IssuanceFilter) *gorm.DB {
	q := db.Model(&models.Issuance{})
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.Overdue != nil {
		q = q.Where("is_overdue = ?", *f.Overdue)
	}
	if f.Attendant != "" {
		q = q.Where("attendant_name = ?", f.Attendant)
	}
	if f.Shift != "" {
		q = q.Where("attendant_shift = ?", f.Shift)
	}
	if f.ToolCode != "" {
		q = q.Where("tool_code = ?", f.ToolCode)
	}
	if f.FromDate != "" {
		q = q.Where("date >= ?", f.FromDate)
	}
	if f.ToDate != "" {
		q = q.Where("date <= ?", f.ToDate)
	}
	return q.Order("created_at DESC, id DESC")
}
