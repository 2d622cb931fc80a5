package repository

import (
	"context"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"

	"gorm.io/gorm"
)

type ForecastRepository interface {
	List(ctx context.Context, q Query) ([]model.DemandForecast, error)
}

type forecastRepo struct{ base }

func NewForecastRepository(db *gorm.DB, timeout time.Duration) ForecastRepository {
	return &forecastRepo{newBase(db, timeout)}
}

func (r *forecastRepo) List(ctx context.Context, q Query) ([]model.DemandForecast, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var out []model.DemandForecast
	if err := apply(db.Model(&model.DemandForecast{}), q).Find(&out).Error; err != nil {
		return nil, apperr.Fetch("demand_forecasts.list", err)
	}
	return quarantine(model.TableDemandForecasts, out,
		func(f model.DemandForecast) []model.LocationType { return []model.LocationType{f.LocationType} },
		func(f model.DemandForecast) string { return f.ID.String() },
	), nil
}
