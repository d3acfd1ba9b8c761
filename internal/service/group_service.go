package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"voxchat/internal/domain"
)

// GroupService manages groups and their membership. Admin-only
// operations check the caller's membership row; a group always keeps at
// least one admin.
type GroupService struct {
	groups domain.GroupRepository
	users  domain.UserRepository
}

func NewGroupService(groups domain.GroupRepository, users domain.UserRepository) *GroupService {
	return &GroupService{groups: groups, users: users}
}

type CreateGroupInput struct {
	Name         string
	Description  *string
	GroupPicture *string
}

type UpdateGroupInput struct {
	Name         *string
	Description  *string
	GroupPicture *string
}

func (s *GroupService) Create(ctx context.Context, creatorID string, in CreateGroupInput) (*domain.Group, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: group name is required", domain.ErrInvalidInput)
	}

	group := &domain.Group{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		GroupPicture: in.GroupPicture,
		CreatedBy:    creatorID,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	// The creator joins as the first admin.
	member := &domain.GroupMember{
		ID:      uuid.NewString(),
		GroupID: group.ID,
		UserID:  creatorID,
		IsAdmin: true,
	}
	if err := s.groups.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("add creator: %w", err)
	}
	return group, nil
}

func (s *GroupService) Get(ctx context.Context, callerID, groupID string) (*domain.Group, error) {
	group, err := s.requireGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) ListForUser(ctx context.Context, userID string, offset, limit int) ([]*domain.Group, int, error) {
	return s.groups.ListForUser(ctx, userID, offset, limit)
}

func (s *GroupService) Update(ctx context.Context, callerID, groupID string, in UpdateGroupInput) (*domain.Group, error) {
	group, err := s.requireGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("%w: group name cannot be empty", domain.ErrInvalidInput)
		}
		group.Name = *in.Name
	}
	if in.Description != nil {
		group.Description = in.Description
	}
	if in.GroupPicture != nil {
		group.GroupPicture = in.GroupPicture
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return group, nil
}

func (s *GroupService) AddMember(ctx context.Context, callerID, groupID, userID string, isAdmin bool) (*domain.GroupMember, error) {
	if _, err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}

	already, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, fmt.Errorf("%w: user is already a member", domain.ErrConflict)
	}

	member := &domain.GroupMember{
		ID:      uuid.NewString(),
		GroupID: groupID,
		UserID:  userID,
		IsAdmin: isAdmin,
	}
	if err := s.groups.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return member, nil
}

// RemoveMember removes a membership. Admins can remove anyone; a member
// can remove their own membership to leave. Removing the last admin is
// rejected so the group never ends up unmanageable.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, memberID string) error {
	if _, err := s.requireGroup(ctx, groupID); err != nil {
		return err
	}

	member, err := s.groups.GetMember(ctx, groupID, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("%w: member", domain.ErrNotFound)
	}

	if member.UserID != callerID {
		if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
			return err
		}
	}

	if member.IsAdmin {
		admins, err := s.groups.CountAdmins(ctx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return domain.ErrLastAdmin
		}
	}

	return s.groups.RemoveMember(ctx, groupID, memberID)
}

func (s *GroupService) ListMembers(ctx context.Context, callerID, groupID string) ([]*domain.GroupMember, error) {
	if _, err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.groups.ListMembers(ctx, groupID)
}

func (s *GroupService) requireGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group", domain.ErrNotFound)
	}
	return group, nil
}

func (s *GroupService) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a group member", domain.ErrForbidden)
	}
	return nil
}

func (s *GroupService) requireAdmin(ctx context.Context, groupID, userID string) error {
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.UserID == userID {
			if m.IsAdmin {
				return nil
			}
			return fmt.Errorf("%w: admin access required", domain.ErrForbidden)
		}
	}
	return fmt.Errorf("%w: not a group member", domain.ErrForbidden)
}
