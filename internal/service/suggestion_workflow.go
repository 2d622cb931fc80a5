package service

import (
	"context"
	"errors"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/metrics"
	"chainpilot/internal/model"
	"chainpilot/internal/notify"
	"chainpilot/internal/repository"
	"chainpilot/internal/scope"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SuggestionWorkflow resolves pending suggestions. The only transitions are
// pending→approved and pending→rejected; both targets are terminal.
type SuggestionWorkflow interface {
	// Resolve moves suggestion id to decision on behalf of actor and returns
	// the updated row. Nothing is retried: on any error the stored status is
	// unchanged and the caller decides whether to try again.
	Resolve(ctx context.Context, actor scope.Actor, id uuid.UUID, decision model.SuggestionStatus) (*model.Suggestion, error)
}

type suggestionWorkflow struct {
	repo repository.SuggestionRepository
	pub  notify.Publisher
	now  func() time.Time
}

func NewSuggestionWorkflow(repo repository.SuggestionRepository, pub notify.Publisher) SuggestionWorkflow {
	return &suggestionWorkflow{repo: repo, pub: pub, now: func() time.Time { return time.Now().UTC() }}
}

func (w *suggestionWorkflow) Resolve(ctx context.Context, actor scope.Actor, id uuid.UUID, decision model.SuggestionStatus) (*model.Suggestion, error) {
	s, err := w.resolve(ctx, actor, id, decision)
	metrics.SuggestionTransitions.WithLabelValues(string(decision), transitionResult(err)).Inc()
	if err != nil {
		log.Warn().Err(err).
			Str("suggestion_id", id.String()).
			Str("decision", string(decision)).
			Str("actor", actor.UserID.String()).
			Msg("suggestion: resolve rejected")
		return nil, err
	}
	log.Info().
		Str("suggestion_id", id.String()).
		Str("decision", string(decision)).
		Str("actor", actor.UserID.String()).
		Msg("suggestion: resolved")
	return s, nil
}

func (w *suggestionWorkflow) resolve(ctx context.Context, actor scope.Actor, id uuid.UUID, decision model.SuggestionStatus) (*model.Suggestion, error) {
	if !decision.Terminal() {
		return nil, apperr.Transition("%q is not a decision", decision)
	}

	s, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Scope is checked before any write.
	sc := scope.Resolve(actor)
	if !sc.AllowsEither(s.FromLocationID, s.FromLocationType, s.ToLocationID, s.ToLocationType) {
		return nil, apperr.Scope("suggestion %s is outside %s", id, sc)
	}

	if s.Status != model.SuggestionPending {
		return nil, apperr.Transition("suggestion %s is already %s", id, s.Status)
	}

	at := w.now()
	changed, err := w.repo.TransitionStatus(ctx, id, model.SuggestionPending, decision, at)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Someone else resolved it between our read and our write.
		return nil, apperr.Transition("suggestion %s is no longer pending", id)
	}

	publish(ctx, w.pub, model.TableSuggestions)

	s.Status = decision
	s.UpdatedAt = at
	return s, nil
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrScopeViolation):
		return "scope_violation"
	case errors.Is(err, apperr.ErrInvalidStateTransition):
		return "invalid_transition"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func errUnknownType(t model.LocationType) error {
	return apperr.Invalid("unknown location type %q", t)
}
