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

type SuggestionRepository interface {
	List(ctx context.Context, q Query) ([]model.Suggestion, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Suggestion, error)
	// TransitionStatus sets status=to only while the row still has status=from.
	// It reports whether a row changed; false means the precondition no longer
	// held (or the row is gone).
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.SuggestionStatus, at time.Time) (bool, error)
}

type suggestionRepo struct{ base }

func NewSuggestionRepository(db *gorm.DB, timeout time.Duration) SuggestionRepository {
	return &suggestionRepo{newBase(db, timeout)}
}

func suggestionTags(s model.Suggestion) []model.LocationType {
	return []model.LocationType{s.FromLocationType, s.ToLocationType}
}

func suggestionID(s model.Suggestion) string { return s.ID.String() }

func (r *suggestionRepo) List(ctx context.Context, q Query) ([]model.Suggestion, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var out []model.Suggestion
	if err := apply(db.Model(&model.Suggestion{}), q).Find(&out).Error; err != nil {
		return nil, apperr.Fetch("suggestions.list", err)
	}
	return quarantine(model.TableSuggestions, out, suggestionTags, suggestionID), nil
}

func (r *suggestionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Suggestion, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var s model.Suggestion
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Fetch("suggestions.find", err)
	}
	if len(quarantine(model.TableSuggestions, []model.Suggestion{s}, suggestionTags, suggestionID)) == 0 {
		return nil, apperr.ErrNotFound
	}
	return &s, nil
}

func (r *suggestionRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.SuggestionStatus, at time.Time) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&model.Suggestion{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, apperr.Update("suggestions.transition", res.Error)
	}
	return res.RowsAffected == 1, nil
}
