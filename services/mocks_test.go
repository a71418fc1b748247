package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/services"
	"github.com/eventhub-pro/eventhub-api/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTransactor выполняет fn без настоящей транзакции.
type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	args := m.Called(ctx, exec, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

func (m *MockUserRepository) CountNonAdmin(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) ListParticipants(ctx context.Context) ([]models.ParticipantOverview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParticipantOverview), args.Error(1)
}

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) List(ctx context.Context, sort models.EventSort) ([]models.Event, error) {
	args := m.Called(ctx, sort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Event, error) {
	args := m.Called(ctx, exec, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) UpdatePosterKey(ctx context.Context, id int, key *string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockEventRepository) References(ctx context.Context, id int) (models.EventReferences, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.EventReferences), args.Error(1)
}

func (m *MockEventRepository) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) ListByEvent(ctx context.Context, eventID int) ([]models.EventSession, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EventSession), args.Error(1)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id int) (*models.EventSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventSession), args.Error(1)
}

func (m *MockSessionRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.EventSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Update(ctx context.Context, session *models.EventSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	args := m.Called(ctx, exec, team)
	return args.Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	args := m.Called(ctx, exec, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]models.Team, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamRepository) ListCaptainedBy(ctx context.Context, exec repositories.SQLExecutor, userID int) ([]models.Team, error) {
	args := m.Called(ctx, exec, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTeamRepository) NameTaken(ctx context.Context, exec repositories.SQLExecutor, eventID int, name string, excludeID int) (bool, error) {
	args := m.Called(ctx, exec, eventID, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamRepository) UpdateName(ctx context.Context, id int, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockTeamRepository) UpdateCaptain(ctx context.Context, exec repositories.SQLExecutor, id, captainID int) error {
	args := m.Called(ctx, exec, id, captainID)
	return args.Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

func (m *MockTeamRepository) DeleteByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int) (int64, error) {
	args := m.Called(ctx, exec, eventID)
	return args.Get(0).(int64), args.Error(1)
}

type MockTeamMemberRepository struct {
	mock.Mock
}

func (m *MockTeamMemberRepository) member(args mock.Arguments) (*models.TeamMember, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockTeamMemberRepository) Create(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	args := m.Called(ctx, exec, member)
	return args.Error(0)
}

func (m *MockTeamMemberRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamMember, error) {
	return m.member(m.Called(ctx, exec, id))
}

func (m *MockTeamMemberRepository) GetByTeamAndUser(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	return m.member(m.Called(ctx, teamID, userID))
}

func (m *MockTeamMemberRepository) FindAcceptedInEvent(ctx context.Context, exec repositories.SQLExecutor, eventID, userID int) (*models.TeamMember, error) {
	return m.member(m.Called(ctx, exec, eventID, userID))
}

func (m *MockTeamMemberRepository) EarliestAccepted(ctx context.Context, exec repositories.SQLExecutor, teamID int) (*models.TeamMember, error) {
	return m.member(m.Called(ctx, exec, teamID))
}

func (m *MockTeamMemberRepository) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from, to models.MemberStatus) error {
	args := m.Called(ctx, exec, id, from, to)
	return args.Error(0)
}

func (m *MockTeamMemberRepository) Reinvite(ctx context.Context, id, invitedBy int) error {
	args := m.Called(ctx, id, invitedBy)
	return args.Error(0)
}

func (m *MockTeamMemberRepository) PromoteToLeader(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

func (m *MockTeamMemberRepository) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

func (m *MockTeamMemberRepository) DeleteByTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int64, error) {
	args := m.Called(ctx, exec, teamID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTeamMemberRepository) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) (int64, error) {
	args := m.Called(ctx, exec, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTeamMemberRepository) DeleteByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int) (int64, error) {
	args := m.Called(ctx, exec, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTeamMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockTeamMemberRepository) ListInvitations(ctx context.Context, userID int) ([]models.TeamMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockTeamMemberRepository) ListMyTeams(ctx context.Context, userID int) ([]models.MyTeam, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MyTeam), args.Error(1)
}

func (m *MockTeamMemberRepository) ListOverview(ctx context.Context) ([]models.TeamMemberOverview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamMemberOverview), args.Error(1)
}

func (m *MockTeamMemberRepository) CountOverview(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRegistrationRepository struct {
	mock.Mock
}

func (m *MockRegistrationRepository) Create(ctx context.Context, exec repositories.SQLExecutor, registration *models.Registration) error {
	args := m.Called(ctx, exec, registration)
	return args.Error(0)
}

func (m *MockRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) ExistsIndividual(ctx context.Context, exec repositories.SQLExecutor, userID, eventID int) (bool, error) {
	args := m.Called(ctx, exec, userID, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistrationRepository) CountRegistered(ctx context.Context, exec repositories.SQLExecutor, eventID int) (int, error) {
	args := m.Called(ctx, exec, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockRegistrationRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRegistrationRepository) ListByUser(ctx context.Context, userID int) ([]models.Registration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRegistrationRepository) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) (int64, error) {
	args := m.Called(ctx, exec, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRegistrationRepository) DeleteByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int) (int64, error) {
	args := m.Called(ctx, exec, eventID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	args := m.Called(ctx, key, contentType, reader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *MockUploader) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockUploader) GetPublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

type sentNotification struct {
	UserID  int
	Type    string
	Payload services.InvitationPayload
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) NotifyUser(userID int, notificationType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, _ := payload.(services.InvitationPayload)
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: notificationType, Payload: p})
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendInvitation(ctx context.Context, to string, data services.InvitationEmail) error {
	args := m.Called(ctx, to, data)
	return args.Error(0)
}
