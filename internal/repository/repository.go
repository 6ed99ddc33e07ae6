package repository

import (
	"context"
	"time"

	"github.com/MarvinPescos/balancehub/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// VerificationRepository persists emailed codes and reset links.
type VerificationRepository interface {
	// CreateVerification expires the user's pending rows of the same type and
	// inserts v in one transaction.
	CreateVerification(ctx context.Context, v *domain.EmailVerification) error
	// LatestPendingVerification returns the newest unexpired pending row of
	// any of the given types.
	LatestPendingVerification(ctx context.Context, userID int64, verificationTypes []string, now time.Time) (*domain.EmailVerification, error)
	GetVerificationByResetToken(ctx context.Context, token string) (*domain.EmailVerification, error)
	// CompleteEmailVerification marks v verified and activates its user.
	CompleteEmailVerification(ctx context.Context, verificationID, userID int64, at time.Time) error
	// CompletePasswordReset marks v verified and stores the new hash.
	CompletePasswordReset(ctx context.Context, verificationID, userID int64, passwordHash []byte, at time.Time) error
	ExpirePendingVerifications(ctx context.Context, now time.Time) (int64, error)
}

// OAuthAccountRepository links users to external identities.
type OAuthAccountRepository interface {
	GetOAuthAccount(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error)
	CreateOAuthAccount(ctx context.Context, account *domain.OAuthAccount) error
	UpdateOAuthAccount(ctx context.Context, account *domain.OAuthAccount) error
	// CreateUserWithOAuthAccount inserts both rows in one transaction.
	CreateUserWithOAuthAccount(ctx context.Context, user *domain.User, account *domain.OAuthAccount) error
}

// CatFactRepository stores daily cat fact subscriptions.
type CatFactRepository interface {
	GetSubscriptionByUser(ctx context.Context, userID int64) (*domain.CatFactSubscription, error)
	CreateSubscription(ctx context.Context, sub *domain.CatFactSubscription) error
	UpdateSubscription(ctx context.Context, sub *domain.CatFactSubscription) error
	ListActiveSubscriptions(ctx context.Context) ([]domain.CatFactSubscription, error)
	RecordCatFactSent(ctx context.Context, subscriptionID int64, sentAt time.Time) error
}

// BuildingRepository stores campus buildings.
type BuildingRepository interface {
	CreateBuilding(ctx context.Context, building *domain.Building) error
	GetBuilding(ctx context.Context, id int64) (*domain.Building, error)
	GetBuildingByName(ctx context.Context, name string) (*domain.Building, error)
	ListBuildings(ctx context.Context, limit, offset int) ([]domain.Building, error)
	UpdateBuilding(ctx context.Context, building *domain.Building) error
	// DeleteBuilding returns ErrConflict while ratings still reference it.
	DeleteBuilding(ctx context.Context, id int64) error
}

// RatingRepository stores building ratings.
type RatingRepository interface {
	// UpsertRating inserts or replaces the (building, user) rating.
	UpsertRating(ctx context.Context, rating *domain.Rating) error
	GetRating(ctx context.Context, id int64) (*domain.Rating, error)
	GetUserRating(ctx context.Context, buildingID, userID int64) (*domain.Rating, error)
	ListRatings(ctx context.Context, limit, offset int) ([]domain.Rating, error)
	ListRatingsByBuilding(ctx context.Context, buildingID int64, limit, offset int) ([]domain.Rating, error)
	UpdateRating(ctx context.Context, rating *domain.Rating) error
	DeleteRating(ctx context.Context, id int64) error
	BuildingAverages(ctx context.Context, buildingID int64) (domain.BuildingAverages, error)
}
