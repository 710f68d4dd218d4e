package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role is the user's role inside their tenant.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// User represents the user model stored in the database. Every user belongs
// to exactly one tenant.
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(100);not null"`
	Email         string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password      string         `json:"-" gorm:"type:varchar(255)"`
	Role          Role           `json:"role" gorm:"type:varchar(20);default:'manager'"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	AvatarURL     string         `json:"avatar_url,omitempty" gorm:"type:varchar(255)"`
	EmailVerified bool           `json:"email_verified" gorm:"default:false"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// SetPassword hashes and stores the credential.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), 12)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// ComparePassword checks a candidate credential against the stored hash.
func (u *User) ComparePassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
