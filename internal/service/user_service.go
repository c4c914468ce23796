package service

import (
	"context"
	"errors"

	"playzone/internal/dto"
	"playzone/internal/model"
	"playzone/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Principal is the verified identity of the caller, taken from the token.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  string
}

type UserService interface {
	// Me returns the caller's row, creating it on first sight.
	Me(ctx context.Context, p Principal) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, p Principal, req dto.UpdateMeRequest) (*dto.UserResponse, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Me(ctx context.Context, p Principal) (*dto.UserResponse, error) {
	u, err := s.repo.FindByID(ctx, p.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = &model.User{ID: p.ID, Email: p.Email, Role: p.Role}
		if err := s.repo.Upsert(ctx, u); err != nil {
			return nil, err
		}
		log.Info().Str("user_id", p.ID.String()).Str("role", p.Role).Msg("user provisioned from token")
	} else if err != nil {
		return nil, err
	}
	out := userResponse(u)
	return &out, nil
}

func (s *userService) UpdateMe(ctx context.Context, p Principal, req dto.UpdateMeRequest) (*dto.UserResponse, error) {
	if err := s.repo.UpdateEmail(ctx, p.ID, req.Email); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, notFound(err, ErrUserNotFound)
	}
	u, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	out := userResponse(u)
	return &out, nil
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	return out, nil
}

func userResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID.String(), Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}
