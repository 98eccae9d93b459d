package repository

import (
	"context"
	"errors"
	"fmt"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	FindByID(ctx context.Context, id int) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error)
	UpdateQuantityAndType(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	Delete(ctx context.Context, id int) error

	// 彙總：excludeTicketID 為 0 表示不排除
	SoldByType(ctx context.Context, eventID int, ticketType model.TicketType, excludeTicketID int) (int, error)
	UserTotal(ctx context.Context, eventID, userID, excludeTicketID int) (int, error)
	SoldByEvent(ctx context.Context, eventID int) (map[model.TicketType]int, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `id, ticket_code, quantity, type, user_id, event_id, buy_date`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketCode,
		&ticket.Quantity,
		&ticket.Type,
		&ticket.UserID,
		&ticket.EventID,
		&ticket.BuyDate,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Create 代碼重複時不寫入並回傳 ErrTicketCodeConflict，由呼叫端換碼重試
func (r *TicketRepositoryImpl) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (ticket_code, quantity, type, user_id, event_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticket_code) DO NOTHING
		RETURNING ` + ticketColumns

	created, err := scanTicket(conn(ctx, r.pool).QueryRow(ctx, query,
		ticket.TicketCode, ticket.Quantity, ticket.Type, ticket.UserID, ticket.EventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketCodeConflict
		}
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return created, nil
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *TicketRepositoryImpl) ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1
		ORDER BY buy_date DESC, id DESC
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

// UpdateQuantityAndType 改票只會變更數量與票種
func (r *TicketRepositoryImpl) UpdateQuantityAndType(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		UPDATE tickets
		SET quantity = $1, type = $2
		WHERE id = $3
		RETURNING ` + ticketColumns

	updated, err := scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, ticket.Quantity, ticket.Type, ticket.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return updated, nil
}

func (r *TicketRepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

func (r *TicketRepositoryImpl) SoldByType(ctx context.Context, eventID int, ticketType model.TicketType, excludeTicketID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM tickets
		WHERE event_id = $1
		  AND type = $2
		  AND id <> $3
	`

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, eventID, ticketType, excludeTicketID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum sold by type: %w", err)
	}
	return total, nil
}

func (r *TicketRepositoryImpl) UserTotal(ctx context.Context, eventID, userID, excludeTicketID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM tickets
		WHERE event_id = $1
		  AND user_id = $2
		  AND id <> $3
	`

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, eventID, userID, excludeTicketID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum user tickets: %w", err)
	}
	return total, nil
}

// SoldByEvent 各票種已售數量，沒有票的票種為 0
func (r *TicketRepositoryImpl) SoldByEvent(ctx context.Context, eventID int) (map[model.TicketType]int, error) {
	query := `
		SELECT type, COALESCE(SUM(quantity), 0)
		FROM tickets
		WHERE event_id = $1
		GROUP BY type
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sold := make(map[model.TicketType]int, len(model.TicketTypes))
	for _, t := range model.TicketTypes {
		sold[t] = 0
	}
	for rows.Next() {
		var (
			ticketType model.TicketType
			total      int
		)
		if err := rows.Scan(&ticketType, &total); err != nil {
			return nil, err
		}
		sold[ticketType] = total
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sold, nil
}
