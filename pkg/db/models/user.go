package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/pkg/enums"
)

// User is a storefront customer or back-office admin.
type User struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email          string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash   string         `gorm:"column:password_hash;not null"`
	DisplayName    string         `gorm:"column:display_name;not null"`
	Phone          *string        `gorm:"column:phone"`
	Role           enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	LastLoggedInAt *time.Time     `gorm:"column:last_logged_in_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
