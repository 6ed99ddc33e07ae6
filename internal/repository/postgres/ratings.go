package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

const ratingColumns = `id, building_id, user_id, aesthetic_rating, functionality_rating,
	photo_worthiness, instagram_potential, weirdness_factor`

// UpsertRating stores the caller's rating, replacing an earlier one for the
// same building.
func (r *Repository) UpsertRating(ctx context.Context, rating *domain.Rating) error {
	if rating == nil {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO ratings (
			building_id, user_id, aesthetic_rating, functionality_rating,
			photo_worthiness, instagram_potential, weirdness_factor
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (building_id, user_id) DO UPDATE SET
			aesthetic_rating = EXCLUDED.aesthetic_rating,
			functionality_rating = EXCLUDED.functionality_rating,
			photo_worthiness = EXCLUDED.photo_worthiness,
			instagram_potential = EXCLUDED.instagram_potential,
			weirdness_factor = EXCLUDED.weirdness_factor
		RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		rating.BuildingID,
		rating.UserID,
		rating.Aesthetic,
		rating.Functionality,
		rating.PhotoWorthiness,
		rating.InstagramPotential,
		rating.WeirdnessFactor,
	).Scan(&rating.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

// GetRating retrieves a rating by identifier.
func (r *Repository) GetRating(ctx context.Context, id int64) (*domain.Rating, error) {
	return scanRating(r.pool.QueryRow(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, id))
}

// GetUserRating retrieves the caller's rating of a building.
func (r *Repository) GetUserRating(ctx context.Context, buildingID, userID int64) (*domain.Rating, error) {
	const query = `SELECT ` + ratingColumns + ` FROM ratings WHERE building_id = $1 AND user_id = $2`
	return scanRating(r.pool.QueryRow(ctx, query, buildingID, userID))
}

// ListRatings pages through all ratings.
func (r *Repository) ListRatings(ctx context.Context, limit, offset int) ([]domain.Rating, error) {
	const query = `SELECT ` + ratingColumns + ` FROM ratings ORDER BY id LIMIT $1 OFFSET $2`
	return r.queryRatings(ctx, query, limit, offset)
}

// ListRatingsByBuilding pages through the ratings of one building.
func (r *Repository) ListRatingsByBuilding(ctx context.Context, buildingID int64, limit, offset int) ([]domain.Rating, error) {
	const query = `SELECT ` + ratingColumns + ` FROM ratings WHERE building_id = $1 ORDER BY id LIMIT $2 OFFSET $3`
	return r.queryRatings(ctx, query, buildingID, limit, offset)
}

// UpdateRating writes the five scores.
func (r *Repository) UpdateRating(ctx context.Context, rating *domain.Rating) error {
	if rating == nil {
		return repository.ErrInvalidArgument
	}
	const query = `UPDATE ratings SET
			aesthetic_rating = $2,
			functionality_rating = $3,
			photo_worthiness = $4,
			instagram_potential = $5,
			weirdness_factor = $6
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		rating.ID,
		rating.Aesthetic,
		rating.Functionality,
		rating.PhotoWorthiness,
		rating.InstagramPotential,
		rating.WeirdnessFactor,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteRating removes a rating.
func (r *Repository) DeleteRating(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// BuildingAverages aggregates the scores of one building.
func (r *Repository) BuildingAverages(ctx context.Context, buildingID int64) (domain.BuildingAverages, error) {
	const query = `SELECT
			AVG(functionality_rating)::float8,
			AVG(aesthetic_rating)::float8,
			AVG(photo_worthiness)::float8,
			AVG(instagram_potential)::float8,
			AVG(weirdness_factor)::float8,
			COUNT(id)
		FROM ratings WHERE building_id = $1`
	var (
		avg   domain.BuildingAverages
		total int64
	)
	err := r.pool.QueryRow(ctx, query, buildingID).Scan(
		&avg.Functionality,
		&avg.Aesthetic,
		&avg.PhotoWorthiness,
		&avg.InstagramPotential,
		&avg.WeirdnessFactor,
		&total,
	)
	if err != nil {
		return domain.BuildingAverages{}, err
	}
	avg.TotalRatings = int(total)
	return avg, nil
}

func (r *Repository) queryRatings(ctx context.Context, query string, args ...any) ([]domain.Rating, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := []domain.Rating{}
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, *rating)
	}
	return ratings, rows.Err()
}

func scanRating(row pgx.Row) (*domain.Rating, error) {
	var rating domain.Rating
	if err := row.Scan(
		&rating.ID,
		&rating.BuildingID,
		&rating.UserID,
		&rating.Aesthetic,
		&rating.Functionality,
		&rating.PhotoWorthiness,
		&rating.InstagramPotential,
		&rating.WeirdnessFactor,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rating, nil
}
