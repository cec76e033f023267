// Package store declares the persistence contracts the issuance engine runs
// against. Records are always read whole and written back whole.
package store

import (
	"context"
	"errors"

	"Gin_postgres_redis_tool_issuance/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type ToolStore interface {
	GetTool(ctx context.Context, code string) (*models.Tool, error)
	GetToolByID(ctx context.Context, id uint) (*models.Tool, error)
	ListTools(ctx context.Context) ([]models.Tool, error)
	CreateTool(ctx context.Context, t *models.Tool) error
	PutTool(ctx context.Context, t *models.Tool) error
	// ReplaceTools upserts every row by code, overwriting both quantities.
	ReplaceTools(ctx context.Context, tools []models.Tool) error
}

type IssuanceStore interface {
	GetIssuance(ctx context.Context, id int64) (*models.Issuance, error)
	// CreateIssuance assigns the next id to is.ID.
	CreateIssuance(ctx context.Context, is *models.Issuance) error
	PutIssuance(ctx context.Context, is *models.Issuance) error
	// PutIssuances writes the batch all-or-nothing.
	PutIssuances(ctx context.Context, batch []models.Issuance) error
	ListIssuances(ctx context.Context, f IssuanceFilter) ([]models.Issuance, error)
}

type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context, role string) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uint) error
}

// Store is what a backend provides in full.
type Store interface {
	ToolStore
	IssuanceStore
	UserStore
}
