package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventhub-pro/eventhub-api/models"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionEventInvalid = errors.New("session event conflict or invalid")
)

type SessionRepository interface {
	ListByEvent(ctx context.Context, eventID int) ([]models.EventSession, error)
	GetByID(ctx context.Context, id int) (*models.EventSession, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, session *models.EventSession) error
	Update(ctx context.Context, session *models.EventSession) error
	Delete(ctx context.Context, id int) error
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

const sessionColumns = `id, event_id, title, speaker, location, start_time, end_time, created_at`

func (r *postgresSessionRepository) ListByEvent(ctx context.Context, eventID int) ([]models.EventSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM event_sessions WHERE event_id = $1 ORDER BY start_time ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions of event %d: %w", eventID, err)
	}
	defer rows.Close()

	sessions := make([]models.EventSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id int) (*models.EventSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM event_sessions WHERE id = $1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (r *postgresSessionRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT COUNT(*) FROM event_sessions`)
}

func (r *postgresSessionRepository) Create(ctx context.Context, session *models.EventSession) error {
	query := `
		INSERT INTO event_sessions (event_id, title, speaker, location, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		session.EventID,
		session.Title,
		session.Speaker,
		session.Location,
		session.StartTime,
		session.EndTime,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		if _, ok := violatedConstraint(err, pqForeignKeyViolation); ok {
			return ErrSessionEventInvalid
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *postgresSessionRepository) Update(ctx context.Context, session *models.EventSession) error {
	query := `
		UPDATE event_sessions SET
			title = $1,
			speaker = $2,
			location = $3,
			start_time = $4,
			end_time = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		session.Title,
		session.Speaker,
		session.Location,
		session.StartTime,
		session.EndTime,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %d: %w", session.ID, err)
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func (r *postgresSessionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM event_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func scanSession(row rowScanner) (*models.EventSession, error) {
	var s models.EventSession
	if err := row.Scan(
		&s.ID,
		&s.EventID,
		&s.Title,
		&s.Speaker,
		&s.Location,
		&s.StartTime,
		&s.EndTime,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
