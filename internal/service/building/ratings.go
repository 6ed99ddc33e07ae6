package building

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

var (
	ErrRatingNotFound = apperr.NotFound("Rating not found")
	ErrNotRated       = apperr.NotFound("You haven't rated this building yet")
	ErrNotOwner       = apperr.New(apperr.KindAuthorization, "You can only modify your own ratings")
	ErrScoreRange     = apperr.Validation("Rating must be between 1 and 10")
)

// Scores holds the five rating dimensions.
type Scores struct {
	Aesthetic          int
	Functionality      int
	PhotoWorthiness    int
	InstagramPotential int
	WeirdnessFactor    int
}

// ScoresUpdate is a partial score update; nil fields are left alone.
type ScoresUpdate struct {
	Aesthetic          *int
	Functionality      *int
	PhotoWorthiness    *int
	InstagramPotential *int
	WeirdnessFactor    *int
}

func (u ScoresUpdate) empty() bool {
	return u.Aesthetic == nil && u.Functionality == nil && u.PhotoWorthiness == nil &&
		u.InstagramPotential == nil && u.WeirdnessFactor == nil
}

// RateBuilding records the user's scores for a building, replacing any
// earlier rating by the same user.
func (s *Service) RateBuilding(ctx context.Context, userID, buildingID int64, scores Scores) (*domain.Rating, error) {
	for _, v := range []int{scores.Aesthetic, scores.Functionality, scores.PhotoWorthiness, scores.InstagramPotential, scores.WeirdnessFactor} {
		if err := checkScore(v); err != nil {
			return nil, err
		}
	}
	if _, err := s.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}

	rating := &domain.Rating{
		BuildingID:         buildingID,
		UserID:             userID,
		Aesthetic:          scores.Aesthetic,
		Functionality:      scores.Functionality,
		PhotoWorthiness:    scores.PhotoWorthiness,
		InstagramPotential: scores.InstagramPotential,
		WeirdnessFactor:    scores.WeirdnessFactor,
	}
	if err := s.ratings.UpsertRating(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBuildingNotFound
		}
		return nil, apperr.Internal("Creation failed", err)
	}
	s.logger.Info("rating saved", "rating_id", rating.ID, "building_id", buildingID, "user_id", userID)
	return rating, nil
}

// GetRating returns one rating.
func (s *Service) GetRating(ctx context.Context, id int64) (*domain.Rating, error) {
	rating, err := s.ratings.GetRating(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, apperr.Internal("Fetching rating by id failed", err)
	}
	return rating, nil
}

// ListRatings pages through all ratings.
func (s *Service) ListRatings(ctx context.Context, limit, offset int) ([]domain.Rating, error) {
	ratings, err := s.ratings.ListRatings(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Internal("Fetching all ratings failed", err)
	}
	return ratings, nil
}

// ListBuildingRatings pages through the ratings of one building.
func (s *Service) ListBuildingRatings(ctx context.Context, buildingID int64, limit, offset int) ([]domain.Rating, error) {
	ratings, err := s.ratings.ListRatingsByBuilding(ctx, buildingID, limit, offset)
	if err != nil {
		return nil, apperr.Internal("Fetching ratings by building failed", err)
	}
	return ratings, nil
}

// MyRating returns the user's rating of a building.
func (s *Service) MyRating(ctx context.Context, userID, buildingID int64) (*domain.Rating, error) {
	rating, err := s.ratings.GetUserRating(ctx, buildingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRated
		}
		return nil, apperr.Internal("Fetching user rating failed", err)
	}
	return rating, nil
}

// UpdateRating applies a partial update to a rating the user owns.
func (s *Service) UpdateRating(ctx context.Context, userID, id int64, in ScoresUpdate) (*domain.Rating, error) {
	rating, err := s.GetRating(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, ErrNoUpdateData
	}
	if rating.UserID != userID {
		return nil, ErrNotOwner
	}

	for _, f := range []struct {
		src *int
		dst *int
	}{
		{in.Aesthetic, &rating.Aesthetic},
		{in.Functionality, &rating.Functionality},
		{in.PhotoWorthiness, &rating.PhotoWorthiness},
		{in.InstagramPotential, &rating.InstagramPotential},
		{in.WeirdnessFactor, &rating.WeirdnessFactor},
	} {
		if f.src == nil {
			continue
		}
		if err := checkScore(*f.src); err != nil {
			return nil, err
		}
		*f.dst = *f.src
	}

	if err := s.ratings.UpdateRating(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, apperr.Internal("Update failed", err)
	}
	s.logger.Info("rating updated", "rating_id", id)
	return rating, nil
}

// DeleteRating removes a rating the user owns and returns the confirmation
// message.
func (s *Service) DeleteRating(ctx context.Context, userID, id int64) (string, error) {
	rating, err := s.GetRating(ctx, id)
	if err != nil {
		return "", err
	}
	if rating.UserID != userID {
		return "", ErrNotOwner
	}
	if err := s.ratings.DeleteRating(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrRatingNotFound
		}
		return "", apperr.Internal("Delete failed", err)
	}
	s.logger.Info("rating deleted", "rating_id", id)
	return fmt.Sprintf("Rating with id %d has been deleted successfully", id), nil
}

// Averages aggregates the scores of a building.
func (s *Service) Averages(ctx context.Context, buildingID int64) (domain.BuildingAverages, error) {
	if _, err := s.GetBuilding(ctx, buildingID); err != nil {
		return domain.BuildingAverages{}, err
	}
	avg, err := s.ratings.BuildingAverages(ctx, buildingID)
	if err != nil {
		return domain.BuildingAverages{}, apperr.Internal("Calculating building averages failed", err)
	}
	return avg, nil
}

func checkScore(v int) error {
	if v < 1 || v > 10 {
		return ErrScoreRange
	}
	return nil
}
