package repository

import (
	"context"

	"github.com/Ananyachauhan19/Skill-Swap-sub008/internal/models"
)

const ticketColumns = `id, user_id, category, subject, message, reported_user_id, status, created_at, updated_at`

type CreateTicketInput struct {
	UserID         int64
	Category       string
	Subject        string
	Message        string
	ReportedUserID *int64
}

type TicketRepository struct {
	db DBTX
}

func NewTicketRepository(db DBTX) *TicketRepository {
	return &TicketRepository{db: db}
}

func scanTicket(row interface{ Scan(dest ...any) error }) (*models.Ticket, error) {
	var ticket models.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Category,
		&ticket.Subject,
		&ticket.Message,
		&ticket.ReportedUserID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) Create(ctx context.Context, input CreateTicketInput) (*models.Ticket, error) {
	query := `
		INSERT INTO tickets (user_id, category, subject, message, reported_user_id, status)
		VALUES ($1, $2, $3, $4, $5, 'open')
		RETURNING ` + ticketColumns

	return scanTicket(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.Category,
		input.Subject,
		input.Message,
		input.ReportedUserID,
	))
}

func (r *TicketRepository) GetByIDForUser(ctx context.Context, ticketID, userID int64) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1 AND user_id = $2`
	return scanTicket(r.db.QueryRow(ctx, query, ticketID, userID))
}

func (r *TicketRepository) ListForUser(ctx context.Context, userID int64) ([]models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}
