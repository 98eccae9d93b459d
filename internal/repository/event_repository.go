package repository

import (
	"context"
	"errors"
	"fmt"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id int) error

	// Transaction methods：須在 WithTx 內呼叫才會持有鎖
	FindByIDForUpdate(ctx context.Context, id int) (*model.Event, error)
	FindByEventIDForUpdate(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, event_id, title, description, scheduled_at, organizer_id,
		category_id, venue_id, general_capacity, vip_capacity, state, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.EventID,
		&event.Title,
		&event.Description,
		&event.ScheduledAt,
		&event.OrganizerID,
		&event.CategoryID,
		&event.VenueID,
		&event.GeneralCapacity,
		&event.VipCapacity,
		&event.State,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (
			event_id, title, description, scheduled_at, organizer_id,
			category_id, venue_id, general_capacity, vip_capacity, state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + eventColumns

	created, err := scanEvent(conn(ctx, r.pool).QueryRow(ctx, query,
		event.EventID, event.Title, event.Description, event.ScheduledAt, event.OrganizerID,
		event.CategoryID, event.VenueID, event.GeneralCapacity, event.VipCapacity, event.State,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		ORDER BY scheduled_at ASC, id ASC
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_id = $1`
	return scanEvent(conn(ctx, r.pool).QueryRow(ctx, query, eventID))
}

// FindByIDForUpdate 鎖住活動列，同一活動的購票與改票因此依序執行
func (r *EventRepositoryImpl) FindByIDForUpdate(ctx context.Context, id int) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return scanEvent(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) FindByEventIDForUpdate(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_id = $1 FOR UPDATE`
	return scanEvent(conn(ctx, r.pool).QueryRow(ctx, query, eventID))
}

// Update 寫回合併後的活動，欄位合併由 model.Event.ApplyUpdate 負責
func (r *EventRepositoryImpl) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		UPDATE events
		SET title = $1, description = $2, scheduled_at = $3, category_id = $4, venue_id = $5,
			general_capacity = $6, vip_capacity = $7, state = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + eventColumns

	updated, err := scanEvent(conn(ctx, r.pool).QueryRow(ctx, query,
		event.Title, event.Description, event.ScheduledAt, event.CategoryID, event.VenueID,
		event.GeneralCapacity, event.VipCapacity, event.State, event.ID,
	))
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return updated, nil
}

// Delete 票券由外鍵 ON DELETE CASCADE 一併刪除
func (r *EventRepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}
