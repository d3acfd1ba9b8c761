package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"voxchat/internal/domain"
	"voxchat/internal/notify"
	"voxchat/internal/security"
)

// AuthService handles registration, verification, login, and password
// resets. Registration requires an email address or a phone number; a
// one-time passcode is dispatched to the contact for verification.
type AuthService struct {
	users      domain.UserRepository
	tokens     *security.TokenService
	hash       *security.PasswordHasher
	otp        security.OTPStore
	dispatcher notify.Dispatcher
	otpLength  int
}

func NewAuthService(
	users domain.UserRepository,
	tokens *security.TokenService,
	hash *security.PasswordHasher,
	otp security.OTPStore,
	dispatcher notify.Dispatcher,
	otpLength int,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		hash:       hash,
		otp:        otp,
		dispatcher: dispatcher,
		otpLength:  otpLength,
	}
}

type RegisterInput struct {
	Email       *string
	PhoneNumber *string
	FullName    *string
	Password    string
}

type LoginInput struct {
	Email       *string
	PhoneNumber *string
	Password    string
}

type VerifyOTPInput struct {
	Email       *string
	PhoneNumber *string
	Code        string
}

type ResetPasswordInput struct {
	Email       *string
	PhoneNumber *string
	Code        string
	NewPassword string
}

type TokenResponse struct {
	AccessToken string
	TokenType   string
	User        *domain.User
}

func hasValue(s *string) bool {
	return s != nil && *s != ""
}

// contact returns the user's reachable address and the channel it
// belongs to, preferring email over phone.
func contact(u *domain.User) (string, notify.Channel) {
	if hasValue(u.Email) {
		return *u.Email, notify.ChannelEmail
	}
	return *u.PhoneNumber, notify.ChannelSMS
}

func (s *AuthService) findByContact(ctx context.Context, email, phone *string) (*domain.User, error) {
	if hasValue(email) {
		return s.users.GetByEmail(ctx, *email)
	}
	if hasValue(phone) {
		return s.users.GetByPhone(ctx, *phone)
	}
	return nil, fmt.Errorf("%w: email or phone number is required", domain.ErrInvalidInput)
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if !hasValue(in.Email) && !hasValue(in.PhoneNumber) {
		return nil, fmt.Errorf("%w: email or phone number is required", domain.ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	if hasValue(in.Email) {
		if existing, err := s.users.GetByEmail(ctx, *in.Email); err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		} else if existing != nil {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}
	if hasValue(in.PhoneNumber) {
		if existing, err := s.users.GetByPhone(ctx, *in.PhoneNumber); err != nil {
			return nil, fmt.Errorf("check phone: %w", err)
		} else if existing != nil {
			return nil, fmt.Errorf("%w: phone number already registered", domain.ErrConflict)
		}
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		FullName:       in.FullName,
		HashedPassword: hashed,
		IsActive:       true,
		IsVerified:     false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendOTP(ctx, user)
	return user, nil
}

// RequestOTP issues a fresh passcode for an existing account, for resend
// flows and password resets.
func (s *AuthService) RequestOTP(ctx context.Context, email, phone *string) error {
	user, err := s.findByContact(ctx, email, phone)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	s.sendOTP(ctx, user)
	return nil
}

// sendOTP generates, stores, and dispatches a passcode. Dispatch itself
// is fire-and-forget; only generation and storage can fail, and those
// failures are swallowed so registration never blocks on delivery.
func (s *AuthService) sendOTP(ctx context.Context, user *domain.User) {
	code, err := security.GenerateOTP(s.otpLength)
	if err != nil {
		return
	}
	if err := s.otp.Save(ctx, user.ID, code); err != nil {
		return
	}
	addr, channel := contact(user)
	s.dispatcher.DispatchOTP(addr, channel, code)
}

func (s *AuthService) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*domain.User, error) {
	user, err := s.findByContact(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}

	ok, err := s.otp.Verify(ctx, user.ID, in.Code)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid or expired code", domain.ErrUnauthenticated)
	}

	if err := s.users.SetVerified(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("set verified: %w", err)
	}
	user.IsVerified = true
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.findByContact(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: incorrect credentials", domain.ErrUnauthenticated)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", domain.ErrUnauthenticated)
	}
	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, fmt.Errorf("%w: incorrect credentials", domain.ErrUnauthenticated)
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

// ResetPassword replaces the password of the account that proves
// ownership of its contact address with a valid passcode.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.NewPassword == "" {
		return fmt.Errorf("%w: new password is required", domain.ErrInvalidInput)
	}
	user, err := s.findByContact(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}

	ok, err := s.otp.Verify(ctx, user.ID, in.Code)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: invalid or expired code", domain.ErrUnauthenticated)
	}

	hashed, err := s.hash.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
