package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

// CreateBuilding inserts a building. Duplicate names conflict.
func (r *Repository) CreateBuilding(ctx context.Context, building *domain.Building) error {
	if building == nil {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO buildings (building_name, architectural_style) VALUES ($1, $2) RETURNING id`
	err := r.pool.QueryRow(ctx, query, strings.TrimSpace(building.Name), building.ArchitecturalStyle).Scan(&building.ID)
	return mapWriteError(err)
}

// GetBuilding retrieves a building by identifier.
func (r *Repository) GetBuilding(ctx context.Context, id int64) (*domain.Building, error) {
	const query = `SELECT id, building_name, architectural_style FROM buildings WHERE id = $1`
	return scanBuilding(r.pool.QueryRow(ctx, query, id))
}

// GetBuildingByName retrieves a building by its unique name.
func (r *Repository) GetBuildingByName(ctx context.Context, name string) (*domain.Building, error) {
	const query = `SELECT id, building_name, architectural_style FROM buildings WHERE building_name = $1`
	return scanBuilding(r.pool.QueryRow(ctx, query, strings.TrimSpace(name)))
}

// ListBuildings pages through buildings ordered by id.
func (r *Repository) ListBuildings(ctx context.Context, limit, offset int) ([]domain.Building, error) {
	const query = `SELECT id, building_name, architectural_style FROM buildings ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buildings := make([]domain.Building, 0, limit)
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, *b)
	}
	return buildings, rows.Err()
}

// UpdateBuilding writes name and style.
func (r *Repository) UpdateBuilding(ctx context.Context, building *domain.Building) error {
	if building == nil {
		return repository.ErrInvalidArgument
	}
	const query = `UPDATE buildings SET building_name = $2, architectural_style = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, building.ID, strings.TrimSpace(building.Name), building.ArchitecturalStyle)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteBuilding removes a building that has no ratings.
func (r *Repository) DeleteBuilding(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM buildings WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanBuilding(row pgx.Row) (*domain.Building, error) {
	var b domain.Building
	if err := row.Scan(&b.ID, &b.Name, &b.ArchitecturalStyle); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}
