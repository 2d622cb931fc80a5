package repository

import (
	"context"
	"errors"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

type profileRepo struct{ base }

func NewProfileRepository(db *gorm.DB, timeout time.Duration) ProfileRepository {
	return &profileRepo{newBase(db, timeout)}
}

func (r *profileRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var p model.Profile
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Fetch("profiles.find", err)
	}
	return &p, nil
}
