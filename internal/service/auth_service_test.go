package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voxchat/internal/domain"
	"voxchat/internal/notify"
	"voxchat/internal/security"
	"voxchat/internal/service"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) ListActive(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	args := m.Called(ctx, id, verified)
	return args.Error(0)
}

func (m *MockUserRepo) UpdatePassword(ctx context.Context, id, hashed string) error {
	args := m.Called(ctx, id, hashed)
	return args.Error(0)
}

func (m *MockUserRepo) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// captureDispatcher records the last dispatched passcode.
type captureDispatcher struct {
	contact string
	channel notify.Channel
	code    string
}

func (d *captureDispatcher) DispatchOTP(contact string, channel notify.Channel, code string) {
	d.contact = contact
	d.channel = channel
	d.code = code
}

func strptr(s string) *string { return &s }

func newAuthService(users *MockUserRepo, dispatcher notify.Dispatcher) (*service.AuthService, security.OTPStore) {
	tokens := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4) // low cost for tests
	otp := security.NewMemoryOTPStore(time.Minute)
	return service.NewAuthService(users, tokens, hasher, otp, dispatcher, 6), otp
}

func TestRegisterDispatchesOTP(t *testing.T) {
	users := new(MockUserRepo)
	dispatcher := &captureDispatcher{}
	svc, _ := newAuthService(users, dispatcher)

	email := "alice@example.com"
	users.On("GetByEmail", mock.Anything, email).Return(nil, nil).Once()

	var created *domain.User
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.User)
		}).
		Return(nil)

	user, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    strptr(email),
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "s3cret", user.HashedPassword)

	assert.Equal(t, email, dispatcher.contact)
	assert.Equal(t, notify.ChannelEmail, dispatcher.channel)
	assert.Len(t, dispatcher.code, 6)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := new(MockUserRepo)
	svc, _ := newAuthService(users, &captureDispatcher{})

	email := "alice@example.com"
	existing := &domain.User{ID: "u1", Email: strptr(email)}
	users.On("GetByEmail", mock.Anything, email).Return(existing, nil)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    strptr(email),
		Password: "s3cret",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterRequiresContact(t *testing.T) {
	users := new(MockUserRepo)
	svc, _ := newAuthService(users, &captureDispatcher{})

	_, err := svc.Register(context.Background(), service.RegisterInput{Password: "s3cret"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerifyOTPFlow(t *testing.T) {
	users := new(MockUserRepo)
	dispatcher := &captureDispatcher{}
	svc, _ := newAuthService(users, dispatcher)

	email := "alice@example.com"
	users.On("GetByEmail", mock.Anything, email).Return(nil, nil).Once()

	var created *domain.User
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.User)
		}).
		Return(nil)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    strptr(email),
		Password: "s3cret",
	})
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, email).Return(created, nil)
	users.On("SetVerified", mock.Anything, created.ID, true).Return(nil)

	// Wrong code first: rejected without consuming the stored one.
	_, err = svc.VerifyOTP(context.Background(), service.VerifyOTPInput{
		Email: strptr(email),
		Code:  "000000x",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	verified, err := svc.VerifyOTP(context.Background(), service.VerifyOTPInput{
		Email: strptr(email),
		Code:  dispatcher.code,
	})
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	// The code is consumed; replaying it fails.
	_, err = svc.VerifyOTP(context.Background(), service.VerifyOTPInput{
		Email: strptr(email),
		Code:  dispatcher.code,
	})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestLogin(t *testing.T) {
	users := new(MockUserRepo)
	svc, _ := newAuthService(users, &captureDispatcher{})

	hasher := security.NewPasswordHasher(4)
	hashed, err := hasher.Hash("s3cret")
	require.NoError(t, err)

	email := "alice@example.com"
	user := &domain.User{
		ID:             "u1",
		Email:          strptr(email),
		HashedPassword: hashed,
		IsActive:       true,
	}
	users.On("GetByEmail", mock.Anything, email).Return(user, nil)

	t.Run("Success", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), service.LoginInput{
			Email:    strptr(email),
			Password: "s3cret",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, "u1", resp.User.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    strptr(email),
			Password: "wrong",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)
		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    strptr("nobody@example.com"),
			Password: "s3cret",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestResetPassword(t *testing.T) {
	users := new(MockUserRepo)
	dispatcher := &captureDispatcher{}
	svc, otp := newAuthService(users, dispatcher)

	email := "alice@example.com"
	user := &domain.User{ID: "u1", Email: strptr(email), IsActive: true}
	users.On("GetByEmail", mock.Anything, email).Return(user, nil)
	users.On("UpdatePassword", mock.Anything, "u1", mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, otp.Save(context.Background(), "u1", "123456"))

	err := svc.ResetPassword(context.Background(), service.ResetPasswordInput{
		Email:       strptr(email),
		Code:        "123456",
		NewPassword: "newpass",
	})
	require.NoError(t, err)
	users.AssertCalled(t, "UpdatePassword", mock.Anything, "u1", mock.AnythingOfType("string"))
}
