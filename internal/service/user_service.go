package service

import (
	"context"
	"fmt"

	"voxchat/internal/domain"
	"voxchat/internal/presence"
)

// UserService exposes user lookup and profile operations. Online state
// comes from the presence store, not the database.
type UserService struct {
	users    domain.UserRepository
	presence presence.Store
}

func NewUserService(users domain.UserRepository, presence presence.Store) *UserService {
	return &UserService{users: users, presence: presence}
}

// UserView is a user enriched with live presence.
type UserView struct {
	*domain.User
	IsOnline bool `json:"is_online"`
}

func (s *UserService) Get(ctx context.Context, id string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	online, err := s.presence.IsOnline(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserView{User: user, IsOnline: online}, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]*UserView, error) {
	users, err := s.users.ListActive(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	online, err := s.presence.ListOnline(ctx)
	if err != nil {
		return nil, err
	}
	onlineSet := make(map[string]struct{}, len(online))
	for _, id := range online {
		onlineSet[id] = struct{}{}
	}

	res := make([]*UserView, 0, len(users))
	for _, u := range users {
		_, isOnline := onlineSet[u.ID]
		res = append(res, &UserView{User: u, IsOnline: isOnline})
	}
	return res, nil
}

// ListOnline returns the IDs of every user with a live connection.
func (s *UserService) ListOnline(ctx context.Context) ([]string, error) {
	return s.presence.ListOnline(ctx)
}

type UpdateProfileInput struct {
	FullName       *string
	ProfilePicture *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}

	if in.FullName != nil {
		user.FullName = in.FullName
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = in.ProfilePicture
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	if err := s.users.SoftDelete(ctx, userID); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}
