package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"jobtracker/internal/apperrors"
	"jobtracker/internal/auth"
	"jobtracker/internal/models"

	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(db *gorm.DB, logger *slog.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// UpsertFromProfile creates the user on first login and afterwards refreshes
// name and avatar only; email and google_id never change.
func (s *UserService) UpsertFromProfile(ctx context.Context, profile auth.Profile) (*models.User, error) {
	if profile.Subject == "" {
		return nil, apperrors.Auth("Authentication failed", auth.ErrNoSubject)
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", profile.Subject).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if profile.Email == "" {
				return apperrors.Auth("Authentication failed", auth.ErrNoEmail)
			}
			user = models.User{
				GoogleID:  profile.Subject,
				Email:     profile.Email,
				Name:      profile.Name,
				AvatarURL: profile.Picture,
				CreatedAt: stampNow(s.now),
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		// Keep the stored value when the provider omits a claim.
		if profile.Name != "" {
			user.Name = profile.Name
		}
		if profile.Picture != "" {
			user.AvatarURL = profile.Picture
		}
		return tx.Model(&user).Updates(map[string]interface{}{
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
		}).Error
	})
	if err != nil {
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) && isUniqueViolation(err) {
			return nil, apperrors.Conflict("User already exists", err)
		}
		return nil, wrapDBError(err)
	}

	s.logger.Info("User signed in", "user_id", user.ID)
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Persistence(err)
	}
	return &user, nil
}
