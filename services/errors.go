package services

import (
	"errors"
	"fmt"

	"github.com/eventhub-pro/eventhub-api/models"
)

// Ошибки сервисного слоя. Текст ошибки используется как сообщение клиенту,
// поэтому он короткий и без технических подробностей.
var (
	// Не найдено
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailNotFound    = errors.New("user not found with this email")
	ErrEventNotFound        = errors.New("event not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrNotTeamMember        = errors.New("you are not a member of this team")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Валидация и бизнес-правила (400)
	ErrValidationFailed     = errors.New("validation failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrInvalidDateRange     = errors.New("end date must be after start date")
	ErrTeamNameConflict     = errors.New("a team with this name already exists for this event, please choose a different name")
	ErrSelfInvite           = errors.New("you cannot invite yourself")
	ErrAlreadyMember        = models.ErrAlreadyMember
	ErrAlreadyInvited       = models.ErrAlreadyInvited
	ErrInvitationProcessed  = models.ErrInvitationProcessed
	ErrCannotRemoveCaptain  = errors.New("cannot remove team captain")
	ErrCaptainCannotLeave   = errors.New("team captain cannot leave, delete the team instead")
	ErrRegistrationClosed   = errors.New("registration for this event is closed")
	ErrEventFull            = errors.New("event is full")
	ErrAlreadyInEventTeam   = errors.New("user already belongs to a team for this event")
	ErrPosterStorageMissing = errors.New("poster storage is not configured")

	// Конфликты (409)
	ErrUserEmailConflict    = errors.New("email already exists")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrEventHasDependencies = errors.New("event has teams or registrations, use force=true to delete them as well")

	// Доступ (401/403)
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrForbiddenOperation     = errors.New("not allowed")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrInvitationNotForUser   = errors.New("this invitation is not for you")
	ErrAdminDeletionForbidden = errors.New("cannot delete admin users")
)

// TeamMembershipError сообщает, что пользователь уже состоит в команде
// этого события. Сообщение называет эту команду.
type TeamMembershipError struct {
	TeamName string
	// Invitation выбирает формулировку для принятия приглашения.
	Invitation bool
}

func (e *TeamMembershipError) Error() string {
	if e.Invitation {
		return fmt.Sprintf("you are already a member of team %q for this event, leave it before accepting another invitation", e.TeamName)
	}
	return fmt.Sprintf("you are already registered in team %q for this event, you cannot create another team for the same event", e.TeamName)
}

func (e *TeamMembershipError) Is(target error) bool {
	return target == ErrAlreadyInEventTeam
}

// ValidationError - ошибка бизнес-валидации входных данных (400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
