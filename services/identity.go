package services

import (
	"context"
	"errors"

	"polizas-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity is the acting staff member as seen by the notice lifecycle.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

func NewIdentity(u models.User) *Identity {
	return &Identity{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.ResolvedDisplayName(),
	}
}

type IdentityResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*Identity, error)
}

type GormIdentityResolver struct {
	db *gorm.DB
}

func NewGormIdentityResolver(db *gorm.DB) *GormIdentityResolver {
	return &GormIdentityResolver{db: db}
}

func (r *GormIdentityResolver) Resolve(ctx context.Context, userID uuid.UUID) (*Identity, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, storeError("Error al obtener el usuario", err)
	}
	if !user.IsActive {
		return nil, ErrNotAuthenticated
	}
	return NewIdentity(user), nil
}
