package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProfileServiceImpl implements ports.ProfileService.
type ProfileServiceImpl struct {
	profileRepo ports.ProfileRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewProfileService creates a new ProfileServiceImpl.
func NewProfileService(profileRepo ports.ProfileRepository, log zerolog.Logger) *ProfileServiceImpl {
	return &ProfileServiceImpl{profileRepo: profileRepo, log: log, now: time.Now}
}

// Get returns the user's profile.
func (s *ProfileServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get profile: %w", err))
	}
	if profile == nil {
		return nil, apperror.ErrNotFound("Profile")
	}
	return profile, nil
}

// Update applies the non-nil fields of req.
func (s *ProfileServiceImpl) Update(ctx context.Context, userID uuid.UUID, req ports.ProfileUpdate) (*domain.Profile, error) {
	if req.AccountCurrency != nil && !req.AccountCurrency.Valid() {
		return nil, apperror.Validation("unsupported currency")
	}
	if req.AccountType != nil && !req.AccountType.Valid() {
		return nil, apperror.Validation("unknown account type")
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	setTrimmed(&profile.Phone, req.Phone)
	setTrimmed(&profile.Address, req.Address)
	setTrimmed(&profile.City, req.City)
	setTrimmed(&profile.Country, req.Country)
	if req.AccountCurrency != nil {
		profile.AccountCurrency = *req.AccountCurrency
	}
	if req.AccountType != nil {
		profile.AccountType = *req.AccountType
	}
	profile.UpdatedAt = s.now().UTC()

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update profile: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Bool("complete", profile.IsComplete()).Msg("profile updated")
	return profile, nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
