package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventhub-pro/eventhub-api/models"
)

var (
	ErrRegistrationNotFound         = errors.New("registration not found")
	ErrRegistrationConflict         = errors.New("registration already exists")
	ErrRegistrationReferenceInvalid = errors.New("registration event or user invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	// ExistsIndividual сообщает, есть ли у пользователя индивидуальная регистрация на событие.
	ExistsIndividual(ctx context.Context, exec SQLExecutor, userID, eventID int) (bool, error)
	CountRegistered(ctx context.Context, exec SQLExecutor, eventID int) (int, error)
	Count(ctx context.Context) (int, error)
	ListByUser(ctx context.Context, userID int) ([]models.Registration, error)
	Delete(ctx context.Context, id int) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) (int64, error)
	DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int64, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error {
	if registration.Status == "" {
		registration.Status = models.RegistrationStatusRegistered
	}

	query := `
		INSERT INTO registrations (user_id, event_id, team_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executorOrDB(exec, r.db).QueryRowContext(ctx, query,
		registration.UserID,
		registration.EventID,
		registration.TeamID,
		registration.Status,
	).Scan(&registration.ID, &registration.CreatedAt)
	if err != nil {
		if constraint, ok := violatedConstraint(err, pqUniqueViolation); ok && constraint == "registrations_user_event_individual_idx" {
			return ErrRegistrationConflict
		}
		if _, ok := violatedConstraint(err, pqForeignKeyViolation); ok {
			return ErrRegistrationReferenceInvalid
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `
		SELECT r.id, r.user_id, r.event_id, r.team_id, r.status, r.created_at,
		       e.title, e.start_datetime, e.venue
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.id = $1`

	var reg models.Registration
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.UserID, &reg.EventID, &reg.TeamID, &reg.Status, &reg.CreatedAt,
		&reg.EventName, &reg.StartDatetime, &reg.Venue,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration %d: %w", id, err)
	}
	return &reg, nil
}

func (r *postgresRegistrationRepository) ExistsIndividual(ctx context.Context, exec SQLExecutor, userID, eventID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2 AND team_id IS NULL)`

	var exists bool
	if err := executorOrDB(exec, r.db).QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return exists, nil
}

func (r *postgresRegistrationRepository) CountRegistered(ctx context.Context, exec SQLExecutor, eventID int) (int, error) {
	return countQuery(ctx, executorOrDB(exec, r.db),
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'registered'`, eventID)
}

func (r *postgresRegistrationRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT COUNT(*) FROM registrations`)
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID int) ([]models.Registration, error) {
	query := `
		SELECT r.id, r.user_id, r.event_id, r.team_id, r.status, r.created_at,
		       e.title, e.start_datetime, e.venue
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY e.start_datetime DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations of user %d: %w", userID, err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.EventID, &reg.TeamID, &reg.Status, &reg.CreatedAt,
			&reg.EventName, &reg.StartDatetime, &reg.Venue,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) (int64, error) {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `DELETE FROM registrations WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete registrations of user %d: %w", userID, err)
	}
	return affectedRows(result)
}

func (r *postgresRegistrationRepository) DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int64, error) {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete registrations of event %d: %w", eventID, err)
	}
	return affectedRows(result)
}
