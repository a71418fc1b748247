package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eventhub-pro/eventhub-api/models"
)

var (
	ErrMemberNotFound         = errors.New("team member not found")
	ErrMemberConflict         = errors.New("team member already exists")
	ErrMemberEventConflict    = errors.New("user already belongs to a team for this event")
	ErrMemberReferenceInvalid = errors.New("team member team or user invalid")
	ErrMemberStatusChanged    = errors.New("team member status changed concurrently")
)

type TeamMemberRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamMember, error)
	GetByTeamAndUser(ctx context.Context, teamID, userID int) (*models.TeamMember, error)
	// FindAcceptedInEvent возвращает принятое членство пользователя в любой
	// команде события (с заполненным TeamName) или ErrMemberNotFound.
	FindAcceptedInEvent(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.TeamMember, error)
	EarliestAccepted(ctx context.Context, exec SQLExecutor, teamID int) (*models.TeamMember, error)

	// UpdateStatus меняет статус, только если текущий статус равен from.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.MemberStatus) error
	Reinvite(ctx context.Context, id, invitedBy int) error
	PromoteToLeader(ctx context.Context, exec SQLExecutor, id int) error

	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByTeam(ctx context.Context, exec SQLExecutor, teamID int) (int64, error)
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) (int64, error)
	DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int64, error)

	ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error)
	ListInvitations(ctx context.Context, userID int) ([]models.TeamMember, error)
	ListMyTeams(ctx context.Context, userID int) ([]models.MyTeam, error)
	ListOverview(ctx context.Context) ([]models.TeamMemberOverview, error)
	CountOverview(ctx context.Context) (int, error)
}

type postgresTeamMemberRepository struct {
	db *sql.DB
}

func NewPostgresTeamMemberRepository(db *sql.DB) TeamMemberRepository {
	return &postgresTeamMemberRepository{db: db}
}

const memberColumns = `tm.id, tm.team_id, tm.user_id, tm.event_id, tm.role, tm.status, tm.invited_by, tm.joined_at`

func mapMemberWriteError(err error) error {
	if constraint, ok := violatedConstraint(err, pqUniqueViolation); ok {
		switch constraint {
		case "team_members_team_id_user_id_key":
			return ErrMemberConflict
		case "team_members_event_user_accepted_idx":
			return ErrMemberEventConflict
		}
	}
	if _, ok := violatedConstraint(err, pqForeignKeyViolation); ok {
		return ErrMemberReferenceInvalid
	}
	return nil
}

func (r *postgresTeamMemberRepository) Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, event_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, joined_at`

	err := executorOrDB(exec, r.db).QueryRowContext(ctx, query,
		member.TeamID,
		member.UserID,
		member.EventID,
		member.Role,
		member.Status,
		member.InvitedBy,
	).Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		if mapped := mapMemberWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

func (r *postgresTeamMemberRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members tm WHERE tm.id = $1`
	return getMember(executorOrDB(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamMemberRepository) GetByTeamAndUser(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members tm WHERE tm.team_id = $1 AND tm.user_id = $2`
	return getMember(r.db.QueryRowContext(ctx, query, teamID, userID))
}

func (r *postgresTeamMemberRepository) FindAcceptedInEvent(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `, t.name
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.event_id = $1 AND tm.user_id = $2 AND tm.status = 'accepted'
		LIMIT 1`

	var m models.TeamMember
	err := executorOrDB(exec, r.db).QueryRowContext(ctx, query, eventID, userID).Scan(
		&m.ID, &m.TeamID, &m.UserID, &m.EventID, &m.Role, &m.Status, &m.InvitedBy, &m.JoinedAt,
		&m.TeamName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find membership for event %d: %w", eventID, err)
	}
	return &m, nil
}

func (r *postgresTeamMemberRepository) EarliestAccepted(ctx context.Context, exec SQLExecutor, teamID int) (*models.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members tm
		WHERE tm.team_id = $1 AND tm.status = 'accepted'
		ORDER BY tm.joined_at ASC, tm.id ASC
		LIMIT 1`
	return getMember(executorOrDB(exec, r.db).QueryRowContext(ctx, query, teamID))
}

func (r *postgresTeamMemberRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.MemberStatus) error {
	query := `UPDATE team_members SET status = $1 WHERE id = $2 AND status = $3`

	result, err := executorOrDB(exec, r.db).ExecContext(ctx, query, to, id, from)
	if err != nil {
		if mapped := mapMemberWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update team member %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMemberStatusChanged)
}

// Reinvite возвращает отклоненное приглашение в pending с новым приглашающим.
func (r *postgresTeamMemberRepository) Reinvite(ctx context.Context, id, invitedBy int) error {
	query := `
		UPDATE team_members
		SET status = 'pending', invited_by = $1, joined_at = NOW()
		WHERE id = $2 AND status = 'rejected'`

	result, err := r.db.ExecContext(ctx, query, invitedBy, id)
	if err != nil {
		return fmt.Errorf("failed to reinvite team member %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresTeamMemberRepository) PromoteToLeader(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `UPDATE team_members SET role = 'Leader' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to promote team member %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresTeamMemberRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team member %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresTeamMemberRepository) DeleteByTeam(ctx context.Context, exec SQLExecutor, teamID int) (int64, error) {
	return r.deleteWhere(ctx, exec, `DELETE FROM team_members WHERE team_id = $1`, teamID)
}

func (r *postgresTeamMemberRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) (int64, error) {
	return r.deleteWhere(ctx, exec, `DELETE FROM team_members WHERE user_id = $1`, userID)
}

func (r *postgresTeamMemberRepository) DeleteByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int64, error) {
	return r.deleteWhere(ctx, exec, `DELETE FROM team_members WHERE event_id = $1`, eventID)
}

func (r *postgresTeamMemberRepository) deleteWhere(ctx context.Context, exec SQLExecutor, query string, id int) (int64, error) {
	result, err := executorOrDB(exec, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete team members: %w", err)
	}
	return affectedRows(result)
}

// ListByTeam возвращает участников команды: сначала капитан, затем по имени.
func (r *postgresTeamMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `, u.name, u.email, u.phone, inviter.name
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		LEFT JOIN users inviter ON inviter.id = tm.invited_by
		WHERE tm.team_id = $1
		ORDER BY CASE WHEN tm.role = 'Leader' THEN 0 ELSE 1 END, u.name`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(
			&m.ID, &m.TeamID, &m.UserID, &m.EventID, &m.Role, &m.Status, &m.InvitedBy, &m.JoinedAt,
			&m.Name, &m.Email, &m.Phone, &m.InvitedByName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresTeamMemberRepository) ListInvitations(ctx context.Context, userID int) ([]models.TeamMember, error) {
	query := `
		SELECT ` + memberColumns + `, t.name, e.title, inviter.name
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		JOIN events e ON e.id = t.event_id
		LEFT JOIN users inviter ON inviter.id = tm.invited_by
		WHERE tm.user_id = $1 AND tm.status = 'pending'
		ORDER BY tm.joined_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations of user %d: %w", userID, err)
	}
	defer rows.Close()

	invitations := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(
			&m.ID, &m.TeamID, &m.UserID, &m.EventID, &m.Role, &m.Status, &m.InvitedBy, &m.JoinedAt,
			&m.TeamName, &m.EventName, &m.InvitedByName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *postgresTeamMemberRepository) ListMyTeams(ctx context.Context, userID int) ([]models.MyTeam, error) {
	query := `
		SELECT tm.id, tm.team_id, tm.status, t.name, t.event_id, e.title,
		       e.start_datetime, e.venue, t.captain_id
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		JOIN events e ON e.id = t.event_id
		WHERE tm.user_id = $1 AND tm.status = 'accepted'
		ORDER BY e.start_datetime DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %d: %w", userID, err)
	}
	defer rows.Close()

	teams := make([]models.MyTeam, 0)
	for rows.Next() {
		var t models.MyTeam
		if err := rows.Scan(
			&t.ID, &t.TeamID, &t.Status, &t.TeamName, &t.EventID, &t.EventName,
			&t.EventDate, &t.Location, &t.CaptainID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

// ListOverview читает представление team_members_overview.
func (r *postgresTeamMemberRepository) ListOverview(ctx context.Context) ([]models.TeamMemberOverview, error) {
	query := `
		SELECT member_id, team_id, team_name, event_id, event_name,
		       user_id, user_name, user_email, role, joined_at
		FROM team_members_overview`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members overview: %w", err)
	}
	defer rows.Close()

	overview := make([]models.TeamMemberOverview, 0)
	for rows.Next() {
		var o models.TeamMemberOverview
		if err := rows.Scan(
			&o.MemberID, &o.TeamID, &o.TeamName, &o.EventID, &o.EventName,
			&o.UserID, &o.UserName, &o.UserEmail, &o.Role, &o.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team member overview: %w", err)
		}
		overview = append(overview, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (r *postgresTeamMemberRepository) CountOverview(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT COUNT(*) FROM team_members_overview`)
}

func getMember(row *sql.Row) (*models.TeamMember, error) {
	var m models.TeamMember
	err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.EventID, &m.Role, &m.Status, &m.InvitedBy, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}
