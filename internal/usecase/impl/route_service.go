// Package impl contains the application service implementations.
package impl

import (
	"context"
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"

	"airscout/config"
	"airscout/internal/domain/entity"
	domainerrors "airscout/internal/domain/errors"
	"airscout/internal/domain/geo"
	"airscout/internal/domain/repository"
	"airscout/internal/domain/risk"
	"airscout/internal/usecase"
)

type routeService struct {
	hazardRepo repository.HazardRepository
	cfg        *config.AlertsConfig
	clock      clockwork.Clock
}

// NewRouteService creates a new route checking service instance
func NewRouteService(
	hazardRepo repository.HazardRepository,
	cfg *config.AlertsConfig,
	clock clockwork.Clock,
) usecase.RouteUsecase {
	return &routeService{
		hazardRepo: hazardRepo,
		cfg:        cfg,
		clock:      clock,
	}
}

// CheckRoute buffers the route, queries intersecting hazards nearest-first
// and scores them with the route check scale.
func (s *routeService) CheckRoute(ctx context.Context, input usecase.CheckRouteInput) (*usecase.RouteAssessment, error) {
	if len(input.Route) < 2 {
		return nil, domainerrors.ErrInvalidRoute
	}

	buffer := input.BufferMeters
	if buffer == 0 {
		buffer = s.cfg.BufferMeters
	}
	if buffer < 0 {
		return nil, domainerrors.ErrInvalidParameter.WrapMessage("buffer meters must be positive")
	}

	minSeverity := input.MinSeverity
	if minSeverity < 0 || minSeverity > 5 {
		return nil, domainerrors.ErrInvalidParameter.WrapMessage("min severity must be within 1..5")
	}

	corridor, err := geo.BufferRoute(input.Route, buffer)
	if err != nil {
		return nil, err
	}

	hazards, err := s.hazardRepo.FindHazardsAlongRoute(ctx, repository.RouteQuery{
		Corridor:    corridor,
		Route:       input.Route,
		MinSeverity: minSeverity,
		Order:       repository.OrderByDistance,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query hazards along route: %w", err)
	}

	assessment := risk.Score(dereference(hazards), buffer, risk.ScaleRouteCheck)

	return &usecase.RouteAssessment{
		CheckedAt:     s.clock.Now(),
		BufferMeters:  buffer,
		RouteLengthKM: math.Round(geo.LengthMeters(input.Route)/10) / 100,
		Risk:          assessment,
		Hazards:       hazards,
	}, nil
}

// ListActiveHazards returns all unexpired hazards, optionally filtered by type.
func (s *routeService) ListActiveHazards(ctx context.Context, hazardType *entity.HazardType) ([]*entity.Hazard, error) {
	if hazardType != nil && !hazardType.Valid() {
		return nil, domainerrors.ErrInvalidParameter.WrapMessage("unknown hazard type")
	}

	hazards, err := s.hazardRepo.FindActiveHazards(ctx, hazardType)
	if err != nil {
		return nil, fmt.Errorf("failed to list active hazards: %w", err)
	}

	return hazards, nil
}

func dereference(hazards []*entity.MatchedHazard) []entity.MatchedHazard {
	out := make([]entity.MatchedHazard, 0, len(hazards))
	for _, h := range hazards {
		if h != nil {
			out = append(out, *h)
		}
	}

	return out
}
