package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"carebridge/chat-api/internal/config"
)

// Connect opens the chat service's postgres connection. On first boot
// the target database is created through the admin connection, so a
// fresh environment comes up without manual provisioning.
func Connect(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	log = log.With().Str("component", "database").Logger()

	dsn := cfg.GetDatabaseWriteDSN()
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	created, err := createDatabaseIfMissing(dsn)
	if err != nil {
		return nil, fmt.Errorf("ensure chat database: %w", err)
	}
	if created {
		log.Info().Msg("chat database created")
	}

	gormLevel := gormlogger.Warn
	if cfg.Environment == "development" {
		gormLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: gormlogger.Default.LogMode(gormLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect chat database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("retrieve sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)

	log.Info().
		Int("max_idle_conns", cfg.DBMaxIdleConns).
		Int("max_open_conns", cfg.DBMaxOpenConns).
		Msg("database connected")
	return db, nil
}

// createDatabaseIfMissing connects to the postgres admin database and
// creates the DSN's target database when it does not exist yet. Non-URL
// DSN formats are left to the driver.
func createDatabaseIfMissing(dsn string) (bool, error) {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return false, nil
	}

	name := strings.TrimPrefix(u.Path, "/")
	if name == "" || name == "postgres" {
		return false, nil
	}

	adminURL := *u
	adminURL.Path = "/postgres"
	admin, err := sql.Open("postgres", adminURL.String())
	if err != nil {
		return false, err
	}
	defer admin.Close()

	var exists bool
	if err := admin.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name,
	).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	quoted := `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	if _, err := admin.Exec("CREATE DATABASE " + quoted); err != nil {
		return false, err
	}
	return true, nil
}
