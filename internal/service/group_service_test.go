package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voxchat/internal/domain"
	"voxchat/internal/service"
)

type MockGroupRepo struct {
	mock.Mock
}

func (m *MockGroupRepo) Create(ctx context.Context, g *domain.Group) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockGroupRepo) Update(ctx context.Context, g *domain.Group) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGroupRepo) ListForUser(ctx context.Context, userID string, offset, limit int) ([]*domain.Group, int, error) {
	return nil, 0, nil
}

func (m *MockGroupRepo) AddMember(ctx context.Context, gm *domain.GroupMember) error {
	args := m.Called(ctx, gm)
	return args.Error(0)
}

func (m *MockGroupRepo) GetMember(ctx context.Context, groupID, memberID string) (*domain.GroupMember, error) {
	args := m.Called(ctx, groupID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupMember), args.Error(1)
}

func (m *MockGroupRepo) RemoveMember(ctx context.Context, groupID, memberID string) error {
	args := m.Called(ctx, groupID, memberID)
	return args.Error(0)
}

func (m *MockGroupRepo) ListMembers(ctx context.Context, groupID string) ([]*domain.GroupMember, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GroupMember), args.Error(1)
}

func (m *MockGroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupRepo) CountAdmins(ctx context.Context, groupID string) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	groups := new(MockGroupRepo)
	users := new(MockUserRepo)
	svc := service.NewGroupService(groups, users)

	groups.On("Create", mock.Anything, mock.AnythingOfType("*domain.Group")).Return(nil)

	var member *domain.GroupMember
	groups.On("AddMember", mock.Anything, mock.AnythingOfType("*domain.GroupMember")).
		Run(func(args mock.Arguments) {
			member = args.Get(1).(*domain.GroupMember)
		}).
		Return(nil)

	group, err := svc.Create(context.Background(), "alice", service.CreateGroupInput{Name: "team"})
	require.NoError(t, err)
	assert.Equal(t, "alice", group.CreatedBy)

	require.NotNil(t, member)
	assert.Equal(t, group.ID, member.GroupID)
	assert.Equal(t, "alice", member.UserID)
	assert.True(t, member.IsAdmin)
}

func TestRemoveLastAdminRejected(t *testing.T) {
	groups := new(MockGroupRepo)
	users := new(MockUserRepo)
	svc := service.NewGroupService(groups, users)

	group := &domain.Group{ID: "g1", Name: "team", CreatedBy: "alice"}
	admin := &domain.GroupMember{ID: "mem1", GroupID: "g1", UserID: "alice", IsAdmin: true}

	groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
	groups.On("GetMember", mock.Anything, "g1", "mem1").Return(admin, nil)
	groups.On("CountAdmins", mock.Anything, "g1").Return(1, nil)

	err := svc.RemoveMember(context.Background(), "alice", "g1", "mem1")
	assert.ErrorIs(t, err, domain.ErrLastAdmin)
	groups.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveAdminWithAnotherRemaining(t *testing.T) {
	groups := new(MockGroupRepo)
	users := new(MockUserRepo)
	svc := service.NewGroupService(groups, users)

	group := &domain.Group{ID: "g1", Name: "team", CreatedBy: "alice"}
	admin := &domain.GroupMember{ID: "mem1", GroupID: "g1", UserID: "alice", IsAdmin: true}

	groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
	groups.On("GetMember", mock.Anything, "g1", "mem1").Return(admin, nil)
	groups.On("CountAdmins", mock.Anything, "g1").Return(2, nil)
	groups.On("RemoveMember", mock.Anything, "g1", "mem1").Return(nil)

	err := svc.RemoveMember(context.Background(), "alice", "g1", "mem1")
	require.NoError(t, err)
	groups.AssertCalled(t, "RemoveMember", mock.Anything, "g1", "mem1")
}

func TestMemberMayLeaveWithoutAdminRights(t *testing.T) {
	groups := new(MockGroupRepo)
	users := new(MockUserRepo)
	svc := service.NewGroupService(groups, users)

	group := &domain.Group{ID: "g1", Name: "team", CreatedBy: "alice"}
	member := &domain.GroupMember{ID: "mem2", GroupID: "g1", UserID: "bob", IsAdmin: false}

	groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
	groups.On("GetMember", mock.Anything, "g1", "mem2").Return(member, nil)
	groups.On("RemoveMember", mock.Anything, "g1", "mem2").Return(nil)

	// Bob removes his own membership; no admin check required.
	err := svc.RemoveMember(context.Background(), "bob", "g1", "mem2")
	require.NoError(t, err)
}

func TestNonAdminCannotRemoveOthers(t *testing.T) {
	groups := new(MockGroupRepo)
	users := new(MockUserRepo)
	svc := service.NewGroupService(groups, users)

	group := &domain.Group{ID: "g1", Name: "team", CreatedBy: "alice"}
	target := &domain.GroupMember{ID: "mem1", GroupID: "g1", UserID: "alice", IsAdmin: true}
	roster := []*domain.GroupMember{
		{ID: "mem1", GroupID: "g1", UserID: "alice", IsAdmin: true},
		{ID: "mem2", GroupID: "g1", UserID: "bob", IsAdmin: false},
	}

	groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
	groups.On("GetMember", mock.Anything, "g1", "mem1").Return(target, nil)
	groups.On("ListMembers", mock.Anything, "g1").Return(roster, nil)

	err := svc.RemoveMember(context.Background(), "bob", "g1", "mem1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAddMemberRejectsDuplicate(t *testing.T) {
	groups := new(MockGroupRepo)
	users := new(MockUserRepo)
	svc := service.NewGroupService(groups, users)

	group := &domain.Group{ID: "g1", Name: "team", CreatedBy: "alice"}
	roster := []*domain.GroupMember{
		{ID: "mem1", GroupID: "g1", UserID: "alice", IsAdmin: true},
	}
	bob := &domain.User{ID: "bob", IsActive: true}

	groups.On("GetByID", mock.Anything, "g1").Return(group, nil)
	groups.On("ListMembers", mock.Anything, "g1").Return(roster, nil)
	users.On("GetByID", mock.Anything, "bob").Return(bob, nil)
	groups.On("IsMember", mock.Anything, "g1", "bob").Return(true, nil)

	_, err := svc.AddMember(context.Background(), "alice", "g1", "bob", false)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
