package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retail-banking-core/config"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService. Login is two steps: the
// password check sends an OTP, and the OTP check returns the token.
type AuthServiceImpl struct {
	userRepo    ports.UserRepository
	profileRepo ports.ProfileRepository
	hashSvc     ports.HashService
	tokenSvc    ports.TokenService
	otp         ports.OTPService
	notify      notifier
	maxAttempts int
	lockout     time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	profileRepo ports.ProfileRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	otp ports.OTPService,
	sender ports.NotificationSender,
	cfg config.WorkflowConfig,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		hashSvc:     hashSvc,
		tokenSvc:    tokenSvc,
		otp:         otp,
		notify:      notifier{users: userRepo, sender: sender, log: log},
		maxAttempts: cfg.LoginAttempts,
		lockout:     cfg.LockoutDuration,
		log:         log,
		now:         time.Now,
	}
}

// Register creates the user and an empty profile for it.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
	if !req.SecurityQuestion.Valid() {
		return nil, apperror.Validation("unknown security question")
	}
	if NormalizeAnswer(req.SecurityAnswer) == "" {
		return nil, apperror.Validation("security answer is required")
	}
	role := req.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrConflict("username already exists")
	}
	existing, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrConflict("email already registered")
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}
	answerHash, err := s.hashSvc.Hash(NormalizeAnswer(req.SecurityAnswer))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash security answer: %w", err))
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:                 uuid.New(),
		Username:           req.Username,
		Email:              email,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		PasswordHash:       passwordHash,
		SecurityQuestion:   req.SecurityQuestion,
		SecurityAnswerHash: answerHash,
		Role:               role,
		Status:             domain.UserStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	if err := s.profileRepo.Create(ctx, &domain.Profile{UserID: user.ID, UpdatedAt: now}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create profile: %w", err))
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("role", string(role)).Msg("user registered")
	return user, nil
}

// Login checks the password. Repeated failures lock the user for the
// configured duration; success clears the counter and sends a login OTP.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return apperror.ErrInvalidCredentials()
	}

	now := s.now().UTC()
	if user.IsLocked(now, s.lockout) {
		return apperror.ErrAccountLocked()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return s.recordFailure(ctx, user, now)
	}

	if user.FailedLoginAttempts > 0 || user.Status == domain.UserStatusLocked {
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
		user.Status = domain.UserStatusActive
		if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
			return apperror.InternalError(fmt.Errorf("reset login state: %w", err))
		}
	}

	if _, err := s.otp.Issue(ctx, user, ports.OTPPurposeLogin); err != nil {
		return apperror.InternalError(fmt.Errorf("issue login otp: %w", err))
	}
	return nil
}

func (s *AuthServiceImpl) recordFailure(ctx context.Context, user *domain.User, now time.Time) error {
	if user.Status == domain.UserStatusLocked {
		// lockout elapsed; start counting again
		user.Status = domain.UserStatusActive
		user.FailedLoginAttempts = 0
	}
	user.FailedLoginAttempts++
	user.LastFailedLogin = &now

	locked := user.FailedLoginAttempts >= s.maxAttempts
	if locked {
		user.Status = domain.UserStatusLocked
	}
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		return apperror.InternalError(fmt.Errorf("record failed login: %w", err))
	}

	if !locked {
		return apperror.ErrInvalidCredentials()
	}

	s.log.Warn().
		Str("user_id", user.ID.String()).
		Int("attempts", user.FailedLoginAttempts).
		Msg("user locked after failed logins")
	s.notify.to(ctx, user.Email, domain.NotificationAccountLocked, map[string]string{
		"name":            user.FullName(),
		"lockout_minutes": strconv.Itoa(int(s.lockout.Minutes())),
	})
	return apperror.ErrAccountLocked()
}

// VerifyLoginOTP exchanges a valid login code for an access token.
func (s *AuthServiceImpl) VerifyLoginOTP(ctx context.Context, email, code string) (string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if user.IsLocked(s.now().UTC(), s.lockout) {
		return "", time.Time{}, apperror.ErrAccountLocked()
	}

	ok, err := s.otp.Verify(ctx, user.ID, ports.OTPPurposeLogin, strings.TrimSpace(code))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify login otp: %w", err))
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return token, expiry, nil
}
