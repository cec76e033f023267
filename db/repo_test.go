package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

// dryRun builds statements without a server.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(
		postgres.New(postgres.Config{DSN: "host=localhost user=tools dbname=tools sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true},
	)
	if err != nil {
		t.Fatalf("Failed to open dry-run session: %v", err)
	}
	return conn
}

func TestIssuanceQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   store.IssuanceFilter
		want     []string
		wantVars int
	}{
		{"no_filter", store.IssuanceFilter{}, []string{"ORDER BY created_at DESC, id DESC"}, 0},
		{
			"sweep_candidates",
			store.IssuanceFilter{Statuses: []models.IssuanceStatus{models.StatusIssued}, Overdue: store.Bool(false)},
			[]string{"status IN ($1)", "is_overdue = $2"},
			2,
		},
		{
			"export",
			store.IssuanceFilter{Attendant: "ama", Shift: "A", FromDate: "2024-01-01", ToDate: "2024-01-31"},
			[]string{"attendant_name = $1", "attendant_shift = $2", "date >= $3", "date <= $4"},
			4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []models.Issuance
			stmt := issuanceQuery(dryRun(t), tt.filter).Find(&rows).Statement
			sql := stmt.SQL.String()

			if !strings.Contains(sql, models.IssuanceTable) {
				t.Errorf("Expected table %s in %q", models.IssuanceTable, sql)
			}
			for _, frag := range tt.want {
				if !strings.Contains(sql, frag) {
					t.Errorf("Expected %q in %q", frag, sql)
				}
			}
			if len(stmt.Vars) != tt.wantVars {
				t.Errorf("Expected %d vars, got %d (%v)", tt.wantVars, len(stmt.Vars), stmt.Vars)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{nil, nil},
		{gorm.ErrRecordNotFound, store.ErrNotFound},
		{fmt.Errorf("first: %w", gorm.ErrRecordNotFound), store.ErrNotFound},
		{gorm.ErrDuplicatedKey, store.ErrConflict},
	}
	for _, tt := range tests {
		if got := translate(tt.in); !errors.Is(got, tt.want) && got != tt.want {
			t.Errorf("translate(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	other := errors.New("connection refused")
	if got := translate(other); got != other {
		t.Errorf("Expected unrelated errors to pass through, got %v", got)
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", User: "tools", Password: "secret", Name: "issuance", Port: "5432"}
	want := "host=db user=tools password=secret dbname=issuance port=5432 sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	cfg.SSLMode = "require"
	if !strings.HasSuffix(cfg.DSN(), "sslmode=require") {
		t.Errorf("Expected sslmode=require, got %q", cfg.DSN())
	}
}
