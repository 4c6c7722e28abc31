package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pollbox/internal/domain/user"
)

type userRepository struct {
	db *gorm.DB
}

func newUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	// Profile rides along in the same insert, so creation stays atomic.
	return translateError(r.db.WithContext(ctx).Create(u).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Preload("Profile").First(&u, "id = ?", id).Error
	if err != nil {
		return user.User{}, translateError(err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Preload("Profile").First(&u, "email = ?", email).Error
	if err != nil {
		return user.User{}, translateError(err)
	}
	return u, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := r.db.WithContext(ctx).Preload("Profile").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.is_admin = ?", true).
		Order("users.email ASC").
		Find(&users).Error
	if err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, p user.Profile) error {
	result := r.db.WithContext(ctx).Model(&user.Profile{}).
		Where("user_id = ?", p.UserID).
		Update("is_admin", p.IsAdmin)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *userRepository) CreateSession(ctx context.Context, s *user.Session) error {
	return translateError(r.db.WithContext(ctx).Create(s).Error)
}

func (r *userRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (user.Session, error) {
	var s user.Session
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return user.Session{}, translateError(err)
	}
	return s, nil
}

func (r *userRepository) RevokeSession(ctx context.Context, id uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Model(&user.Session{}).
		Where("id = ?", id).Update("is_revoked", true).Error)
}
