package domain

import "time"

// OAuth providers.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// OAuthAccount links a user to an external identity. Tokens are sealed.
type OAuthAccount struct {
	ID                int64
	UserID            int64
	Provider          string
	ProviderUserID    string
	AccessToken       []byte
	RefreshToken      []byte
	TokenExpiresAt    *time.Time
	ProviderEmail     *string
	ProviderName      *string
	ProfilePictureURL *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
