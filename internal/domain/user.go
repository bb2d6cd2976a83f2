package domain

import (
	"strings"
	"time"
)

// Role enumerates account privileges.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the credential record for dashboard accounts.
type User struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     *string
	Role             Role
	ResetToken       *string
	ResetTokenExpiry *time.Time
	AvatarStyle      *string
	AvatarSeed       *string
	AvatarKey        *string
	AuthProvider     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPassword is false for accounts created through an external provider.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ProfileUpdate lists the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	AvatarStyle *string
	AvatarSeed  *string
	AvatarKey   *string
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.AvatarStyle == nil && p.AvatarSeed == nil && p.AvatarKey == nil
}

// NormalizeEmail trims and lower-cases an email so it can be used as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
