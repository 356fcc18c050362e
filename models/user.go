package models

import (
	"strings"
	"time"

	"polizas-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a brokerage staff member.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	DisplayName string     `gorm:"type:varchar(50)" json:"display_name"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Initialize UUID and hash the password before creating
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}

// ResolvedDisplayName is the name shown as the author of notes and as
// notified_by on notices: the configured display name, else the local part
// of the email, else "Usuario".
func (u User) ResolvedDisplayName() string {
	return DisplayNameFor(u.DisplayName, u.Email)
}

func DisplayNameFor(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	return "Usuario"
}
