package httpx

import (
	"time"

	"github.com/MarvinPescos/balancehub/internal/domain"
)

type registerRequest struct {
	Username string  `json:"username" validate:"required,alphanum,min=3,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,password"`
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
}

type verifyEmailRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Code   string `json:"code" validate:"required,len=6"`
}

type resendVerificationRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code" validate:"omitempty,len=6"`
}

type updateUserRequest struct {
	Username string  `json:"username" validate:"required,alphanum,min=3,max=50"`
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
}

type profileRequest struct {
	Username        *string `json:"username" validate:"omitempty,alphanum,min=3,max=50"`
	Email           *string `json:"email" validate:"omitempty,email"`
	FullName        *string `json:"full_name" validate:"omitempty,max=100"`
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password" validate:"omitempty,password"`
}

type forgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

type twoFactorTokenRequest struct {
	Token string `json:"token" validate:"required,len=6"`
}

type twoFactorDisableRequest struct {
	Password string `json:"password" validate:"required"`
	Token    string `json:"token" validate:"required,len=6"`
}

type atbashRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type caesarRequest struct {
	Text  string `json:"text" validate:"required,min=1"`
	Shift int    `json:"shift" validate:"gte=1,lte=25"`
}

type vigenereRequest struct {
	Text string `json:"text" validate:"required,min=1"`
	Key  string `json:"key" validate:"required,letterspace"`
}

type qrRequest struct {
	Text string `json:"text"`
}

type jokeRequest struct {
	CipherType  *string `json:"cipher_type" validate:"omitempty,oneof=atbash caesar vigenere"`
	CaesarShift *int    `json:"caesar_shift" validate:"omitempty,gte=1,lte=25"`
	VigenereKey *string `json:"vigenere_key" validate:"omitempty,min=1"`
}

type subscribeRequest struct {
	PreferredTime string `json:"preferred_time"`
	Timezone      string `json:"timezone"`
}

type preferencesRequest struct {
	IsActive      *bool   `json:"is_active"`
	PreferredTime *string `json:"preferred_time"`
	Timezone      *string `json:"timezone"`
}

type sendDailyRequest struct {
	APIKey string `json:"api_key"`
}

type buildingRequest struct {
	Name               string  `json:"building_name" validate:"required"`
	ArchitecturalStyle *string `json:"architectural_style" validate:"omitempty,max=100"`
}

type buildingUpdateRequest struct {
	Name               *string `json:"building_name"`
	ArchitecturalStyle *string `json:"architectural_style" validate:"omitempty,max=100"`
}

type ratingRequest struct {
	BuildingID         int64 `json:"building_id" validate:"required,gt=0"`
	Aesthetic          int   `json:"aesthetic_rating" validate:"gte=1,lte=10"`
	Functionality      int   `json:"functionality_rating" validate:"gte=1,lte=10"`
	PhotoWorthiness    int   `json:"photo_worthiness" validate:"gte=1,lte=10"`
	InstagramPotential int   `json:"instagram_potential" validate:"gte=1,lte=10"`
	WeirdnessFactor    int   `json:"weirdness_factor" validate:"gte=1,lte=10"`
}

type ratingUpdateRequest struct {
	Aesthetic          *int `json:"aesthetic_rating" validate:"omitempty,gte=1,lte=10"`
	Functionality      *int `json:"functionality_rating" validate:"omitempty,gte=1,lte=10"`
	PhotoWorthiness    *int `json:"photo_worthiness" validate:"omitempty,gte=1,lte=10"`
	InstagramPotential *int `json:"instagram_potential" validate:"omitempty,gte=1,lte=10"`
	WeirdnessFactor    *int `json:"weirdness_factor" validate:"omitempty,gte=1,lte=10"`
}

type userResponse struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FullName         *string   `json:"full_name"`
	IsActive         bool      `json:"is_active"`
	IsEmailVerified  bool      `json:"is_email_verified"`
	Role             string    `json:"role"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
		IsActive:         u.IsActive,
		IsEmailVerified:  u.IsEmailVerified,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

type subscriptionResponse struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	IsActive      bool       `json:"is_active"`
	PreferredTime string     `json:"preferred_time"`
	Timezone      string     `json:"timezone"`
	LastSentAt    *time.Time `json:"last_sent_at"`
	TotalSent     int        `json:"total_sent"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newSubscriptionResponse(s *domain.CatFactSubscription) *subscriptionResponse {
	if s == nil {
		return nil
	}
	return &subscriptionResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		IsActive:      s.IsActive,
		PreferredTime: s.PreferredTime,
		Timezone:      s.Timezone,
		LastSentAt:    s.LastSentAt,
		TotalSent:     s.TotalSent,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type buildingResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"building_name"`
	ArchitecturalStyle *string `json:"architectural_style"`
}

func newBuildingResponse(b *domain.Building) buildingResponse {
	return buildingResponse{ID: b.ID, Name: b.Name, ArchitecturalStyle: b.ArchitecturalStyle}
}

func newBuildingResponses(items []domain.Building) []buildingResponse {
	out := make([]buildingResponse, 0, len(items))
	for i := range items {
		out = append(out, newBuildingResponse(&items[i]))
	}
	return out
}

type ratingResponse struct {
	ID                 int64 `json:"id"`
	BuildingID         int64 `json:"building_id"`
	UserID             int64 `json:"user_id"`
	Aesthetic          int   `json:"aesthetic_rating"`
	Functionality      int   `json:"functionality_rating"`
	PhotoWorthiness    int   `json:"photo_worthiness"`
	InstagramPotential int   `json:"instagram_potential"`
	WeirdnessFactor    int   `json:"weirdness_factor"`
}

func newRatingResponse(r *domain.Rating) ratingResponse {
	return ratingResponse{
		ID:                 r.ID,
		BuildingID:         r.BuildingID,
		UserID:             r.UserID,
		Aesthetic:          r.Aesthetic,
		Functionality:      r.Functionality,
		PhotoWorthiness:    r.PhotoWorthiness,
		InstagramPotential: r.InstagramPotential,
		WeirdnessFactor:    r.WeirdnessFactor,
	}
}

func newRatingResponses(items []domain.Rating) []ratingResponse {
	out := make([]ratingResponse, 0, len(items))
	for i := range items {
		out = append(out, newRatingResponse(&items[i]))
	}
	return out
}

type averagesResponse struct {
	FunctionalityAvg      *float64 `json:"functionality_avg"`
	AestheticAvg          *float64 `json:"aesthetic_avg"`
	PhotoWorthinessAvg    *float64 `json:"photo_worthiness_avg"`
	InstagramPotentialAvg *float64 `json:"instagram_potential_avg"`
	WeirdnessFactorAvg    *float64 `json:"weirdness_factor_avg"`
	TotalRatings          int      `json:"total_ratings"`
}
