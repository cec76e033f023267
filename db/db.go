package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"Gin_postgres_redis_tool_issuance/models"
)

type Config struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func (c Config) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, sslmode,
	)
}

// ConnectDB opens the postgres pool and migrates the schema.
func ConnectDB(cfg Config) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate models: %w", err)
	}
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Tool{}, &models.Issuance{}); err != nil {
		return err
	}

	// Sweep candidates: issued and not yet flagged.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_shift_end
	  ON %s (shift_end_time)
	  WHERE status = 'issued' AND is_overdue = FALSE;
	`, models.IssuanceTable, models.IssuanceTable)).Error; err != nil {
		return err
	}

	// Listings are served newest first.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_created_at_desc
	  ON %s (created_at DESC, id DESC);
	`, models.IssuanceTable, models.IssuanceTable)).Error; err != nil {
		return err
	}

	return nil
}
