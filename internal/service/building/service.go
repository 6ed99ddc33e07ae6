// Package building implements the campus building rater.
package building

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

const (
	minNameLength = 3
	maxNameLength = 50
)

var (
	ErrBuildingExists     = apperr.Conflict("Building already exists")
	ErrBuildingNotFound   = apperr.NotFound("Building not found")
	ErrBuildingNameTaken  = apperr.Conflict("Building name already exists")
	ErrBuildingReferenced = apperr.Conflict("Cannot delete building due to existing references (ratings exist)")
	ErrNoUpdateData       = apperr.Validation("No data provided for update")
	ErrInvalidName        = apperr.Validation("Building name must contain only letters, numbers, spaces, or dashes")
	ErrNameLength         = apperr.Validation(fmt.Sprintf("Building name must be between %d and %d characters", minNameLength, maxNameLength))
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9\s\-]+$`)

// BuildingInput describes a new building.
type BuildingInput struct {
	Name               string
	ArchitecturalStyle *string
}

// BuildingUpdate is a partial building update; nil fields are left alone.
type BuildingUpdate struct {
	Name               *string
	ArchitecturalStyle *string
}

// Service manages buildings and their ratings.
type Service struct {
	buildings repository.BuildingRepository
	ratings   repository.RatingRepository
	logger    *slog.Logger
}

// New constructs a Service.
func New(buildings repository.BuildingRepository, ratings repository.RatingRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		buildings: buildings,
		ratings:   ratings,
		logger:    logger.With("component", "building_rater"),
	}
}

// CreateBuilding registers a building under a unique name.
func (s *Service) CreateBuilding(ctx context.Context, in BuildingInput) (*domain.Building, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	if _, err := s.buildings.GetBuildingByName(ctx, name); err == nil {
		return nil, ErrBuildingExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal("Creation failed", err)
	}

	b := &domain.Building{Name: name, ArchitecturalStyle: in.ArchitecturalStyle}
	if err := s.buildings.CreateBuilding(ctx, b); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrBuildingExists
		}
		return nil, apperr.Internal("Creation failed", err)
	}
	s.logger.Info("building created", "building_id", b.ID)
	return b, nil
}

// GetBuilding returns one building.
func (s *Service) GetBuilding(ctx context.Context, id int64) (*domain.Building, error) {
	b, err := s.buildings.GetBuilding(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBuildingNotFound
		}
		return nil, apperr.Internal("Fetching building by id failed", err)
	}
	return b, nil
}

// ListBuildings pages through buildings.
func (s *Service) ListBuildings(ctx context.Context, limit, offset int) ([]domain.Building, error) {
	buildings, err := s.buildings.ListBuildings(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Internal("Fetching all buildings failed", err)
	}
	return buildings, nil
}

// UpdateBuilding applies a partial update.
func (s *Service) UpdateBuilding(ctx context.Context, id int64, in BuildingUpdate) (*domain.Building, error) {
	b, err := s.GetBuilding(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name == nil && in.ArchitecturalStyle == nil {
		return nil, ErrNoUpdateData
	}

	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return nil, err
		}
		if name != b.Name {
			existing, err := s.buildings.GetBuildingByName(ctx, name)
			switch {
			case err == nil && existing.ID != b.ID:
				return nil, ErrBuildingNameTaken
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, apperr.Internal("Update failed", err)
			}
		}
		b.Name = name
	}
	if in.ArchitecturalStyle != nil {
		b.ArchitecturalStyle = in.ArchitecturalStyle
	}

	if err := s.buildings.UpdateBuilding(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrBuildingNameTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrBuildingNotFound
		}
		return nil, apperr.Internal("Update failed", err)
	}
	s.logger.Info("building updated", "building_id", b.ID)
	return b, nil
}

// DeleteBuilding removes a building that has no ratings and returns the
// confirmation message.
func (s *Service) DeleteBuilding(ctx context.Context, id int64) (string, error) {
	if _, err := s.GetBuilding(ctx, id); err != nil {
		return "", err
	}
	if err := s.buildings.DeleteBuilding(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return "", ErrBuildingReferenced
		case errors.Is(err, repository.ErrNotFound):
			return "", ErrBuildingNotFound
		}
		return "", apperr.Internal("Delete failed", err)
	}
	s.logger.Info("building deleted", "building_id", id)
	return fmt.Sprintf("Building with id %d has been deleted successfully", id), nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return "", ErrNameLength
	}
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	return name, nil
}
