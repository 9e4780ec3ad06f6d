package agent

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "carebridge/chat-api/internal/domain/agent"
	"carebridge/chat-api/internal/infrastructure/database/entities"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// PostgresRepository persists agent records.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the agent row by public id.
func (r *PostgresRepository) Save(ctx context.Context, a *domain.Agent) error {
	entity := entities.NewSchemaAgent(a)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "public_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "email", "team_chat_user_id", "status", "last_activity",
			"languages", "specialties", "max_concurrent", "sequence",
			"avg_response_minutes", "resolution_rate", "satisfaction",
			"total_conversations", "updated_at",
		}),
	}).Create(entity).Error
	if err != nil {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to save agent", err, "",
			map[string]any{"agent_id": a.ID})
	}
	return nil
}

// List returns all persisted agents in registration order.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	var rows []entities.Agent
	if err := r.db.WithContext(ctx).Order("sequence ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to list agents", err, "")
	}
	out := make([]*domain.Agent, len(rows))
	for i := range rows {
		out[i] = rows[i].EtoD()
	}
	return out, nil
}
