package conversation

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "carebridge/chat-api/internal/domain/conversation"
	"carebridge/chat-api/internal/infrastructure/database/entities"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// PostgresRepository persists conversations and their message logs.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the conversation row and appends any new messages.
// Message rows are append-only; existing rows are never rewritten.
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Conversation) error {
	entity := entities.NewSchemaConversation(c)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "public_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"state", "language", "assigned_agent_id", "escalated_at",
				"completed_at", "satisfaction", "context", "metadata", "updated_at",
			}),
		}).Create(entity).Error; err != nil {
			return err
		}

		for i := range c.Messages {
			msg := entities.NewSchemaMessage(&c.Messages[i])
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "public_id"}},
				DoNothing: true,
			}).Create(msg).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to save conversation", err, "",
			map[string]any{"conversation_id": c.ID})
	}
	return nil
}

// Load fetches a conversation with its ordered message log.
func (r *PostgresRepository) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	var entity entities.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sent_at ASC, id ASC")
		}).
		Where("public_id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound, "conversation not found", err, "",
				map[string]any{"conversation_id": id})
		}
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to load conversation", err, "",
			map[string]any{"conversation_id": id})
	}
	return entity.EtoD(), nil
}

// ListByUser returns the user's most recent conversations without
// message logs.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to list conversations", err, "",
			map[string]any{"user_id": userID})
	}

	out := make([]*domain.Conversation, len(rows))
	for i := range rows {
		out[i] = rows[i].EtoD()
	}
	return out, nil
}
