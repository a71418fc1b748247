package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventhub-pro/eventhub-api/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventInvalid  = errors.New("event violates a check constraint")
	ErrEventInUse    = errors.New("event is referenced by teams or registrations")
)

type EventRepository interface {
	List(ctx context.Context, sort models.EventSort) ([]models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	// GetForUpdate блокирует строку события до конца транзакции exec.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	UpdatePosterKey(ctx context.Context, id int, key *string) error
	References(ctx context.Context, id int) (models.EventReferences, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, title, description, venue, start_datetime, end_datetime, capacity,
	registration_status, rules, poster_key, created_at`

var eventOrderClauses = map[models.EventSort]string{
	models.EventSortDefault:      `ORDER BY created_at DESC`,
	models.EventSortLatest:       `ORDER BY start_datetime DESC`,
	models.EventSortOldest:       `ORDER BY start_datetime ASC`,
	models.EventSortAlphabetical: `ORDER BY title ASC`,
	models.EventSortOpenFirst:    `ORDER BY CASE WHEN registration_status = 'open' THEN 0 ELSE 1 END, start_datetime DESC`,
	models.EventSortClosedFirst:  `ORDER BY CASE WHEN registration_status = 'closed' THEN 0 ELSE 1 END, start_datetime DESC`,
}

// eventOrderClause возвращает ORDER BY для известного порядка, иначе порядок по умолчанию.
func eventOrderClause(sort models.EventSort) string {
	if clause, ok := eventOrderClauses[sort]; ok {
		return clause
	}
	return eventOrderClauses[models.EventSortDefault]
}

func (r *postgresEventRepository) List(ctx context.Context, sort models.EventSort) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ` + eventOrderClause(sort)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return getEvent(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresEventRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return getEvent(executorOrDB(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresEventRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT COUNT(*) FROM events`)
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, venue, start_datetime, end_datetime, capacity, registration_status, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.Venue,
		event.StartDatetime,
		event.EndDatetime,
		event.Capacity,
		event.RegistrationStatus,
		event.Rules,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		if _, ok := violatedConstraint(err, pqCheckViolation); ok {
			return ErrEventInvalid
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			title = $1,
			description = $2,
			venue = $3,
			start_datetime = $4,
			end_datetime = $5,
			capacity = $6,
			registration_status = $7,
			rules = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Description,
		event.Venue,
		event.StartDatetime,
		event.EndDatetime,
		event.Capacity,
		event.RegistrationStatus,
		event.Rules,
		event.ID,
	)
	if err != nil {
		if _, ok := violatedConstraint(err, pqCheckViolation); ok {
			return ErrEventInvalid
		}
		return fmt.Errorf("failed to update event %d: %w", event.ID, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdatePosterKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET poster_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to update poster for event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) References(ctx context.Context, id int) (models.EventReferences, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM teams WHERE event_id = $1),
			(SELECT COUNT(*) FROM registrations WHERE event_id = $1)`

	var refs models.EventReferences
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&refs.Teams, &refs.Registrations); err != nil {
		return refs, fmt.Errorf("failed to count references of event %d: %w", id, err)
	}
	return refs, nil
}

// Delete удаляет событие; расписание удаляется каскадом.
// Команды и регистрации должны быть удалены заранее, иначе ErrEventInUse.
func (r *postgresEventRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		if _, ok := violatedConstraint(err, pqForeignKeyViolation); ok {
			return ErrEventInUse
		}
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var event models.Event
	var rules sql.NullString
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Venue,
		&event.StartDatetime,
		&event.EndDatetime,
		&event.Capacity,
		&event.RegistrationStatus,
		&rules,
		&event.PosterKey,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Rules = rules.String
	return &event, nil
}

func getEvent(row *sql.Row) (*models.Event, error) {
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}
