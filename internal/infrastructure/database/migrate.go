package database

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"carebridge/chat-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies the schema for all chat service tables.
func AutoMigrate(db *gorm.DB, log zerolog.Logger) error {
	models := []any{
		&entities.Conversation{},
		&entities.ConversationMessage{},
		&entities.EscalationTicket{},
		&entities.Agent{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return err
	}

	log.Info().Int("models", len(models)).Msg("database migration complete")
	return nil
}
