package domain

import "time"

// User roles.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// User represents a platform account.
type User struct {
	ID               int64
	Username         string
	Email            string
	PasswordHash     []byte
	FullName         *string
	IsActive         bool
	IsEmailVerified  bool
	Role             string
	TwoFactorEnabled bool
	// TwoFactorSecret holds the sealed TOTP secret; nil until setup starts.
	TwoFactorSecret []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName picks the friendliest name available for greetings.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return "Friend"
}
