package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/netstore-backend/pkg/enums"
)

// User represents a storefront customer or administrator.
type User struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string             `gorm:"column:email;not null;uniqueIndex"`
	Username      string             `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash  *string            `gorm:"column:password_hash"`
	FullName      string             `gorm:"column:full_name;not null"`
	Phone         *string            `gorm:"column:phone"`
	AvatarURL     *string            `gorm:"column:avatar_url"`
	IsActive      bool               `gorm:"column:is_active;not null"`
	EmailVerified bool               `gorm:"column:email_verified;not null"`
	AuthProvider  enums.AuthProvider `gorm:"column:auth_provider;not null"`
	GoogleSubject *string            `gorm:"column:google_subject;uniqueIndex"`
	LastLoginAt   *time.Time         `gorm:"column:last_login_at"`
	Roles         []Role             `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// HasRole reports whether the user is linked to the given role.
func (u User) HasRole(role enums.Role) bool {
	for _, r := range u.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// PrimaryRole is the role carried in access tokens.
func (u User) PrimaryRole() enums.Role {
	if u.HasRole(enums.RoleAdmin) {
		return enums.RoleAdmin
	}
	return enums.RoleCustomer
}

// Role is a platform role that users link to through user_roles.
type Role struct {
	ID   uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name enums.Role `gorm:"column:name;not null;uniqueIndex"`
}

// UserRole is the join row between users and roles.
type UserRole struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	RoleID uuid.UUID `gorm:"column:role_id;type:uuid;primaryKey"`
}

func (UserRole) TableName() string { return "user_roles" }
