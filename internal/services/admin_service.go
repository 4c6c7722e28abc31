package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pollbox/internal/domain/user"
	"pollbox/internal/repository"
	pollerrors "pollbox/pkg/errors"
)

// AdminService answers who is allowed behind the admin surface and manages
// the admin roster. The main admin is pinned by configuration and cannot be
// demoted through the API.
type AdminService struct {
	users          repository.UserRepository
	questions      repository.QuestionRepository
	votes          repository.VoteRepository
	mainAdminEmail string
}

func NewAdminService(users repository.UserRepository, questions repository.QuestionRepository, votes repository.VoteRepository, mainAdminEmail string) *AdminService {
	return &AdminService{
		users:          users,
		questions:      questions,
		votes:          votes,
		mainAdminEmail: strings.ToLower(mainAdminEmail),
	}
}

type Stats struct {
	TotalQuestions      int64   `json:"total_questions"`
	TotalVotes          int64   `json:"total_votes"`
	TotalVoters         int64   `json:"total_voters"`
	UnpublishedCount    int64   `json:"unpublished_count"`
	ChoicelessCount     int64   `json:"choiceless_count"`
	HiddenFromPublic    int64   `json:"hidden_from_public"`
	TotalAdmins         int64   `json:"total_admins"`
	AverageVotesPerUser float64 `json:"average_votes_per_user"`
}

func (s *AdminService) IsMainAdmin(u user.User) bool {
	return s.mainAdminEmail != "" && strings.EqualFold(u.Email, s.mainAdminEmail)
}

func (s *AdminService) IsAdmin(u user.User) bool {
	return u.Profile.IsAdmin || s.IsMainAdmin(u)
}

// RequireAdmin loads the calling user and verifies admin standing. Missing
// identity reads as unauthorized, a real non-admin user as forbidden.
func (s *AdminService) RequireAdmin(ctx context.Context) (user.User, error) {
	u, err := s.callingUser(ctx)
	if err != nil {
		return user.User{}, err
	}
	if !s.IsAdmin(u) {
		return user.User{}, pollerrors.ErrForbidden
	}
	return u, nil
}

func (s *AdminService) RequireMainAdmin(ctx context.Context) (user.User, error) {
	u, err := s.callingUser(ctx)
	if err != nil {
		return user.User{}, err
	}
	if !s.IsMainAdmin(u) {
		return user.User{}, pollerrors.ErrForbidden
	}
	return u, nil
}

func (s *AdminService) callingUser(ctx context.Context) (user.User, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok || userID == uuid.Nil {
		return user.User{}, pollerrors.ErrUnauthorized
	}
	return s.users.GetByID(ctx, userID)
}

func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	totalQuestions, err := s.questions.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	totalVotes, err := s.votes.CountVotes(ctx)
	if err != nil {
		return Stats{}, err
	}
	totalVoters, err := s.votes.CountVoters(ctx)
	if err != nil {
		return Stats{}, err
	}
	unpublished, choiceless, hidden, err := s.questions.CountHidden(ctx, time.Now())
	if err != nil {
		return Stats{}, err
	}
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalQuestions:   totalQuestions,
		TotalVotes:       totalVotes,
		TotalVoters:      totalVoters,
		UnpublishedCount: unpublished,
		ChoicelessCount:  choiceless,
		HiddenFromPublic: hidden,
		TotalAdmins:      int64(len(admins)),
	}
	if totalVoters > 0 {
		stats.AverageVotesPerUser = float64(totalVotes) / float64(totalVoters)
	}
	return stats, nil
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]UserInfo, error) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]UserInfo, 0, len(admins))
	for _, a := range admins {
		infos = append(infos, ToUserInfo(a))
	}
	return infos, nil
}

func (s *AdminService) GrantAdmin(ctx context.Context, email string) (UserInfo, error) {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return UserInfo{}, err
	}
	if !u.Profile.IsAdmin {
		u.Profile.UserID = u.ID
		u.Profile.IsAdmin = true
		if err := s.users.UpdateProfile(ctx, u.Profile); err != nil {
			return UserInfo{}, err
		}
	}
	return ToUserInfo(u), nil
}

// RevokeAdmin demotes a regular admin. The target is re-read from the store
// before the check so a stale roster cannot demote the main admin.
func (s *AdminService) RevokeAdmin(ctx context.Context, email string) (UserInfo, error) {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return UserInfo{}, err
	}
	if s.IsMainAdmin(u) {
		return UserInfo{}, fmt.Errorf("%w: the main admin cannot be demoted", pollerrors.ErrForbidden)
	}
	if u.Profile.IsAdmin {
		u.Profile.UserID = u.ID
		u.Profile.IsAdmin = false
		if err := s.users.UpdateProfile(ctx, u.Profile); err != nil {
			return UserInfo{}, err
		}
	}
	return ToUserInfo(u), nil
}

func (s *AdminService) userByEmail(ctx context.Context, email string) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return user.User{}, fmt.Errorf("%w: email must be a valid address", pollerrors.ErrInvalidInput)
	}
	return s.users.GetByEmail(ctx, email)
}
