package ticket

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carebridge/chat-api/internal/domain/escalation"
	"carebridge/chat-api/internal/infrastructure/database/entities"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// PostgresRepository persists escalation tickets.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the ticket row by public id.
func (r *PostgresRepository) Save(ctx context.Context, t *escalation.Ticket) error {
	entity := entities.NewSchemaTicket(t)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "public_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"priority", "status", "queue_position", "assigned_agent_id",
			"assigned_at", "first_response_at", "resolved_at",
			"response_sla_minutes", "resolution_sla_minutes", "sla_baseline",
			"updated_at",
		}),
	}).Create(entity).Error
	if err != nil {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to save ticket", err, "",
			map[string]any{"ticket_id": t.ID})
	}
	return nil
}
