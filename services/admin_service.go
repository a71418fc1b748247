package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
)

type AdminService interface {
	Stats(ctx context.Context) (*models.AdminStats, error)
	TeamMembersOverview(ctx context.Context) ([]models.TeamMemberOverview, error)
	TeamMembersCount(ctx context.Context) (int, error)
}

type adminService struct {
	userRepo         repositories.UserRepository
	eventRepo        repositories.EventRepository
	teamRepo         repositories.TeamRepository
	memberRepo       repositories.TeamMemberRepository
	registrationRepo repositories.RegistrationRepository
	sessionRepo      repositories.SessionRepository
}

func NewAdminService(
	userRepo repositories.UserRepository,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	registrationRepo repositories.RegistrationRepository,
	sessionRepo repositories.SessionRepository,
) AdminService {
	return &adminService{
		userRepo:         userRepo,
		eventRepo:        eventRepo,
		teamRepo:         teamRepo,
		memberRepo:       memberRepo,
		registrationRepo: registrationRepo,
		sessionRepo:      sessionRepo,
	}
}

// Stats собирает счетчики панели администратора параллельно.
func (s *adminService) Stats(ctx context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{}
	g, gctx := errgroup.WithContext(ctx)

	counters := []struct {
		dst   *int
		count func(context.Context) (int, error)
	}{
		{&stats.Users, s.userRepo.CountNonAdmin},
		{&stats.Events, s.eventRepo.Count},
		{&stats.Teams, s.teamRepo.Count},
		{&stats.TeamMembers, s.memberRepo.CountOverview},
		{&stats.Registrations, s.registrationRepo.Count},
		{&stats.Sessions, s.sessionRepo.Count},
	}
	for _, c := range counters {
		c := c
		g.Go(func() error {
			n, err := c.count(gctx)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect admin stats: %w", err)
	}
	return stats, nil
}

func (s *adminService) TeamMembersOverview(ctx context.Context) ([]models.TeamMemberOverview, error) {
	return s.memberRepo.ListOverview(ctx)
}

func (s *adminService) TeamMembersCount(ctx context.Context) (int, error) {
	return s.memberRepo.CountOverview(ctx)
}
