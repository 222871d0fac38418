package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	model "waste-collector.com/waste-collector/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert returns the user with email, creating it when absent.
func (r *UserRepository) Upsert(ctx context.Context, email, name string) (*model.User, error) {
	user := model.User{Email: normalizeEmail(email)}
	err := r.db.WithContext(ctx).
		Where(model.User{Email: user.Email}).
		Attrs(model.User{Name: name}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
