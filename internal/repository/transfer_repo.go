package repository

import (
	"context"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"

	"gorm.io/gorm"
)

// TransferRepository reads transfer requests and their completion logs. Both
// are written by the external fulfillment side only.
type TransferRepository interface {
	ListRequests(ctx context.Context, q Query) ([]model.TransferRequest, error)
	ListLogs(ctx context.Context, q Query) ([]model.TransferLog, error)
}

type transferRepo struct{ base }

func NewTransferRepository(db *gorm.DB, timeout time.Duration) TransferRepository {
	return &transferRepo{newBase(db, timeout)}
}

func (r *transferRepo) ListRequests(ctx context.Context, q Query) ([]model.TransferRequest, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var out []model.TransferRequest
	if err := apply(db.Model(&model.TransferRequest{}), q).Find(&out).Error; err != nil {
		return nil, apperr.Fetch("transfer_requests.list", err)
	}
	return quarantine(model.TableTransferRequests, out,
		func(t model.TransferRequest) []model.LocationType {
			return []model.LocationType{t.FromLocationType, t.ToLocationType}
		},
		func(t model.TransferRequest) string { return t.ID.String() },
	), nil
}

func (r *transferRepo) ListLogs(ctx context.Context, q Query) ([]model.TransferLog, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var out []model.TransferLog
	if err := apply(db.Model(&model.TransferLog{}), q).Find(&out).Error; err != nil {
		return nil, apperr.Fetch("transfer_logs.list", err)
	}
	return quarantine(model.TableTransferLogs, out,
		func(t model.TransferLog) []model.LocationType {
			return []model.LocationType{t.FromLocationType, t.ToLocationType}
		},
		func(t model.TransferLog) string { return t.ID.String() },
	), nil
}
