package service

import (
	"context"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/infra"
	"chainpilot/internal/metrics"
	"chainpilot/internal/scope"

	"github.com/rs/zerolog/log"
)

// Webhook is the outbound automation endpoint.
type Webhook interface {
	Configured() bool
	Trigger(ctx context.Context, payload infra.AutomationPayload) (int, error)
}

// AutomationResult is reported back to the operator.
type AutomationResult struct {
	StatusCode  int
	TriggeredAt time.Time
}

// AutomationService fires the manual forecast automation. One call, one POST:
// a failure is reported once and never retried.
type AutomationService interface {
	Trigger(ctx context.Context, actor scope.Actor) (*AutomationResult, error)
}

type automationService struct {
	hook Webhook
	cb   *infra.CircuitBreaker
}

func NewAutomationService(hook Webhook, cb *infra.CircuitBreaker) AutomationService {
	return &automationService{hook: hook, cb: cb}
}

func (s *automationService) Trigger(ctx context.Context, actor scope.Actor) (*AutomationResult, error) {
	if !scope.Resolve(actor).Unscoped() {
		return nil, apperr.Scope("automation is restricted to administrators")
	}
	if s.hook == nil || !s.hook.Configured() {
		return nil, apperr.Invalid("webhook URL not configured")
	}

	payload := infra.AutomationPayload{
		Trigger:   infra.TriggerManualForecast,
		Timestamp: time.Now().UTC(),
		Source:    infra.AutomationSource,
	}
	var status int
	call := func() error {
		var err error
		status, err = s.hook.Trigger(ctx, payload)
		return err
	}

	var err error
	if s.cb != nil {
		err = s.cb.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		metrics.AutomationTriggers.WithLabelValues("failure").Inc()
		log.Error().Err(err).Int("status", status).Msg("automation: trigger failed")
		return nil, apperr.Update("automation.trigger", err)
	}
	metrics.AutomationTriggers.WithLabelValues("success").Inc()
	log.Info().Int("status", status).Str("actor", actor.UserID.String()).Msg("automation: triggered")
	return &AutomationResult{StatusCode: status, TriggeredAt: payload.Timestamp}, nil
}
