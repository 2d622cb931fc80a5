package view

import (
	"context"

	"chainpilot/internal/derive"
	"chainpilot/internal/model"
	"chainpilot/internal/projection"
	"chainpilot/internal/scope"
	"chainpilot/internal/service"

	"github.com/google/uuid"
)

// ProcessedShown caps the processed list, newest first.
const ProcessedShown = 10

type SuggestionRow struct {
	model.Suggestion
	FromName string `json:"from_name"`
	ToName   string `json:"to_name"`
}

type SuggestionsSnapshot struct {
	Pending   []SuggestionRow         `json:"pending"`
	Processed []SuggestionRow         `json:"processed"`
	Counts    derive.SuggestionCounts `json:"counts"`
	Status
}

// Suggestions is the review queue of one actor.
type Suggestions struct {
	base
	actor       scope.Actor
	workflow    service.SuggestionWorkflow
	suggestions *projection.Cache[model.Suggestion]
	stores      *projection.Cache[model.Store]
	warehouses  *projection.Cache[model.Warehouse]
}

func OpenSuggestions(ctx context.Context, d Deps, actor scope.Actor) (v *Suggestions, err error) {
	v = &Suggestions{actor: actor, workflow: d.Workflow}
	v.init()
	defer func() {
		if err != nil {
			v.Close()
			v = nil
		}
	}()

	if v.suggestions, err = open(ctx, &v.base, d, model.TableSuggestions,
		func(ctx context.Context) ([]model.Suggestion, error) { return d.Suggestions.List(ctx, actor) },
		suggestionKey); err != nil {
		return v, err
	}
	if v.stores, err = open(ctx, &v.base, d, model.TableStores, d.Locations.Stores, nil); err != nil {
		return v, err
	}
	if v.warehouses, err = open(ctx, &v.base, d, model.TableWarehouses, d.Locations.Warehouses, nil); err != nil {
		return v, err
	}
	v.start()
	v.detach = d.Live.attach(v)
	return v, nil
}

func (v *Suggestions) Snapshot() SuggestionsSnapshot {
	sug := v.suggestions.Snapshot()
	stores := v.stores.Snapshot()
	warehouses := v.warehouses.Snapshot()

	st := newStatus()
	add(st, sug)
	add(st, stores)
	add(st, warehouses)

	names := derive.LocationNames(stores.Items, warehouses.Items)
	processed := suggestionRows(derive.ProcessedSuggestions(sug.Items), names)
	if len(processed) > ProcessedShown {
		processed = processed[:ProcessedShown]
	}
	return SuggestionsSnapshot{
		Pending:   suggestionRows(derive.PendingSuggestions(sug.Items), names),
		Processed: processed,
		Counts:    derive.CountSuggestions(sug.Items),
		Status:    st.s,
	}
}

// Resolve runs the workflow and, once the store accepted the transition,
// patches the local cache so the caller sees it before the bus event lands.
// The reload that event triggers applies the same status again.
func (v *Suggestions) Resolve(ctx context.Context, id uuid.UUID, decision model.SuggestionStatus) (*model.Suggestion, error) {
	s, err := v.workflow.Resolve(ctx, v.actor, id, decision)
	if err != nil {
		return nil, err
	}
	v.patchSuggestion(*s)
	return s, nil
}

func (v *Suggestions) patchSuggestion(s model.Suggestion) { patchSuggestion(v.suggestions, s) }

func suggestionRows(items []model.Suggestion, names map[derive.LocationKey]string) []SuggestionRow {
	rows := make([]SuggestionRow, 0, len(items))
	for _, s := range items {
		rows = append(rows, SuggestionRow{
			Suggestion: s,
			FromName:   derive.LocationName(names, s.FromLocationID, s.FromLocationType),
			ToName:     derive.LocationName(names, s.ToLocationID, s.ToLocationType),
		})
	}
	return rows
}
