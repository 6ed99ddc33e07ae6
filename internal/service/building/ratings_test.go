package building

import (
	"context"
	"errors"
	"testing"

	"github.com/MarvinPescos/balancehub/internal/domain"
)

var validScores = Scores{Aesthetic: 7, Functionality: 8, PhotoWorthiness: 9, InstagramPotential: 6, WeirdnessFactor: 2}

func TestRateBuildingUpserts(t *testing.T) {
	ratings := newRatingRepo()
	svc := newTestService(newBuildingRepo(domain.Building{ID: 1, Name: "Gym"}), ratings)
	ctx := context.Background()

	first, err := svc.RateBuilding(ctx, 5, 1, validScores)
	if err != nil {
		t.Fatalf("RateBuilding: %v", err)
	}
	again := validScores
	again.Aesthetic = 10
	second, err := svc.RateBuilding(ctx, 5, 1, again)
	if err != nil {
		t.Fatalf("RateBuilding: %v", err)
	}
	if first.ID != second.ID || len(ratings.byID) != 1 || ratings.byID[first.ID].Aesthetic != 10 {
		t.Fatalf("expected upsert of one rating, got %+v", ratings.byID)
	}
}

func TestRateBuildingRejectsBadInput(t *testing.T) {
	svc := newTestService(newBuildingRepo(domain.Building{ID: 1, Name: "Gym"}), newRatingRepo())
	ctx := context.Background()

	if _, err := svc.RateBuilding(ctx, 5, 2, validScores); !errors.Is(err, ErrBuildingNotFound) {
		t.Fatalf("expected ErrBuildingNotFound, got %v", err)
	}
	bad := validScores
	bad.WeirdnessFactor = 11
	if _, err := svc.RateBuilding(ctx, 5, 1, bad); !errors.Is(err, ErrScoreRange) {
		t.Fatalf("expected ErrScoreRange, got %v", err)
	}
}

func TestUpdateRatingOwnership(t *testing.T) {
	ratings := newRatingRepo(domain.Rating{ID: 3, BuildingID: 1, UserID: 5, Aesthetic: 1, Functionality: 1, PhotoWorthiness: 1, InstagramPotential: 1, WeirdnessFactor: 1})
	svc := newTestService(newBuildingRepo(domain.Building{ID: 1, Name: "Gym"}), ratings)
	ctx := context.Background()

	if _, err := svc.UpdateRating(ctx, 5, 3, ScoresUpdate{}); !errors.Is(err, ErrNoUpdateData) {
		t.Fatalf("expected ErrNoUpdateData, got %v", err)
	}
	if _, err := svc.UpdateRating(ctx, 6, 3, ScoresUpdate{Aesthetic: ptr(9)}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.UpdateRating(ctx, 5, 3, ScoresUpdate{Aesthetic: ptr(0)}); !errors.Is(err, ErrScoreRange) {
		t.Fatalf("expected ErrScoreRange, got %v", err)
	}
	updated, err := svc.UpdateRating(ctx, 5, 3, ScoresUpdate{Aesthetic: ptr(9), WeirdnessFactor: ptr(4)})
	if err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}
	if updated.Aesthetic != 9 || updated.WeirdnessFactor != 4 || updated.Functionality != 1 {
		t.Fatalf("unexpected rating %+v", updated)
	}
	if _, err := svc.UpdateRating(ctx, 5, 99, ScoresUpdate{Aesthetic: ptr(9)}); !errors.Is(err, ErrRatingNotFound) {
		t.Fatalf("expected ErrRatingNotFound, got %v", err)
	}
}

func TestDeleteRating(t *testing.T) {
	ratings := newRatingRepo(domain.Rating{ID: 3, BuildingID: 1, UserID: 5})
	svc := newTestService(newBuildingRepo(domain.Building{ID: 1, Name: "Gym"}), ratings)
	ctx := context.Background()

	if _, err := svc.DeleteRating(ctx, 6, 3); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	msg, err := svc.DeleteRating(ctx, 5, 3)
	if err != nil {
		t.Fatalf("DeleteRating: %v", err)
	}
	if msg != "Rating with id 3 has been deleted successfully" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestMyRatingAndAverages(t *testing.T) {
	ratings := newRatingRepo(domain.Rating{ID: 3, BuildingID: 1, UserID: 5})
	ratings.averages = domain.BuildingAverages{Aesthetic: ptr(7.5), TotalRatings: 2}
	svc := newTestService(newBuildingRepo(domain.Building{ID: 1, Name: "Gym"}), ratings)
	ctx := context.Background()

	if _, err := svc.MyRating(ctx, 6, 1); !errors.Is(err, ErrNotRated) {
		t.Fatalf("expected ErrNotRated, got %v", err)
	}
	if r, err := svc.MyRating(ctx, 5, 1); err != nil || r.ID != 3 {
		t.Fatalf("unexpected rating %+v / %v", r, err)
	}
	avg, err := svc.Averages(ctx, 1)
	if err != nil || avg.TotalRatings != 2 || *avg.Aesthetic != 7.5 {
		t.Fatalf("unexpected averages %+v / %v", avg, err)
	}
	if _, err := svc.Averages(ctx, 2); !errors.Is(err, ErrBuildingNotFound) {
		t.Fatalf("expected ErrBuildingNotFound, got %v", err)
	}
}
