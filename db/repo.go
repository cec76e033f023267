// Package db is the postgres backend of the store contracts, built on gorm.
package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

type Repo struct{ DB *gorm.DB }

var _ store.Store = (*Repo)(nil)

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// translate maps gorm errors onto the store sentinels. Conflicts are only
// recognised when the connection was opened with TranslateError.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrConflict
	}
	return err
}

// updateAll writes every column of an existing row. Unlike Save it never
// falls back to an insert.
func (r *Repo) updateAll(ctx context.Context, model any) error {
	res := r.DB.WithContext(ctx).Model(model).Select("*").Omit("created_at").Updates(model)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Users

func (r *Repo) GetUser(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ListUsers returns every user, or only those of role when it is set.
func (r *Repo) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *Repo) DeleteUser(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
