package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventhub-pro/eventhub-api/models"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamNameConflict      = errors.New("team name conflict")
	ErrTeamReferencesInvalid = errors.New("team event or captain invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Team, error)
	ListCaptainedBy(ctx context.Context, exec SQLExecutor, userID int) ([]models.Team, error)
	Count(ctx context.Context) (int, error)
	NameTaken(ctx context.Context, exec SQLExecutor, eventID int, name string, excludeID int) (bool, error)
	UpdateName(ctx context.Context, id int, name string) error
	UpdateCaptain(ctx context.Context, exec SQLExecutor, id, captainID int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int64, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func mapTeamWriteError(err error) error {
	if constraint, ok := violatedConstraint(err, pqUniqueViolation); ok && constraint == "teams_event_id_name_key" {
		return ErrTeamNameConflict
	}
	if _, ok := violatedConstraint(err, pqForeignKeyViolation); ok {
		return ErrTeamReferencesInvalid
	}
	return nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, event_id, captain_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executorOrDB(exec, r.db).QueryRowContext(ctx, query,
		team.Name,
		team.EventID,
		team.CaptainID,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if mapped := mapTeamWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `
		SELECT t.id, t.name, t.event_id, t.captain_id, t.created_at,
		       u.name, u.email, e.title
		FROM teams t
		LEFT JOIN users u ON u.id = t.captain_id
		LEFT JOIN events e ON e.id = t.event_id
		WHERE t.id = $1`

	var team models.Team
	err := executorOrDB(exec, r.db).QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.EventID,
		&team.CaptainID,
		&team.CreatedAt,
		&team.CaptainName,
		&team.CaptainEmail,
		&team.EventName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return &team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.event_id, t.captain_id, t.created_at,
		       u.name, e.title
		FROM teams t
		LEFT JOIN users u ON u.id = t.captain_id
		LEFT JOIN events e ON e.id = t.event_id
		ORDER BY t.created_at DESC`
	return r.queryTeams(ctx, r.db, query)
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.event_id, t.captain_id, t.created_at,
		       u.name, e.title
		FROM teams t
		LEFT JOIN users u ON u.id = t.captain_id
		LEFT JOIN events e ON e.id = t.event_id
		WHERE t.event_id = $1
		ORDER BY t.created_at DESC`
	return r.queryTeams(ctx, r.db, query, eventID)
}

func (r *postgresTeamRepository) ListCaptainedBy(ctx context.Context, exec SQLExecutor, userID int) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.event_id, t.captain_id, t.created_at,
		       u.name, e.title
		FROM teams t
		LEFT JOIN users u ON u.id = t.captain_id
		LEFT JOIN events e ON e.id = t.event_id
		WHERE t.captain_id = $1
		ORDER BY t.id`
	return r.queryTeams(ctx, executorOrDB(exec, r.db), query, userID)
}

func (r *postgresTeamRepository) queryTeams(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Team, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(
			&team.ID,
			&team.Name,
			&team.EventID,
			&team.CaptainID,
			&team.CreatedAt,
			&team.CaptainName,
			&team.EventName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT COUNT(*) FROM teams`)
}

// NameTaken проверяет, занято ли имя команды в рамках события.
// excludeID позволяет не учитывать саму переименовываемую команду (0 - не исключать).
func (r *postgresTeamRepository) NameTaken(ctx context.Context, exec SQLExecutor, eventID int, name string, excludeID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM teams WHERE event_id = $1 AND name = $2 AND id <> $3)`

	var taken bool
	if err := executorOrDB(exec, r.db).QueryRowContext(ctx, query, eventID, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check team name: %w", err)
	}
	return taken, nil
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, id int, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if mapped := mapTeamWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to rename team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateCaptain(ctx context.Context, exec SQLExecutor, id, captainID int) error {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `UPDATE teams SET captain_id = $1 WHERE id = $2`, captainID, id)
	if err != nil {
		if mapped := mapTeamWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to change captain of team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

// Delete удаляет команду. Строки team_members должны быть удалены заранее;
// командные регистрации удаляются каскадом.
func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int64, error) {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `DELETE FROM teams WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete teams of event %d: %w", eventID, err)
	}
	return affectedRows(result)
}
