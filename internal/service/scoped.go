package service

import (
	"context"
	"sort"

	"chainpilot/internal/model"
	"chainpilot/internal/repository"
	"chainpilot/internal/scope"

	"github.com/google/uuid"
)

// Location names one store or warehouse.
type Location struct {
	ID   uuid.UUID
	Type model.LocationType
}

// Direction selects which endpoint of a transfer-like row must match.
type Direction string

const (
	DirectionAny      Direction = ""
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// edge is the pair of endpoints of a transfer-like row.
type edge struct {
	fromID, toID     uuid.UUID
	fromType, toType model.LocationType
}

func (e edge) matches(loc Location, dir Direction) bool {
	in := e.toID == loc.ID && e.toType == loc.Type
	out := e.fromID == loc.ID && e.fromType == loc.Type
	switch dir {
	case DirectionIncoming:
		return in
	case DirectionOutgoing:
		return out
	default:
		return in || out
	}
}

// target resolves which single location a read is narrowed to. A nil result
// with a nil error means unscoped. Asking for a location outside the scope is
// a ScopeViolation, never a silent empty result.
func target(sc scope.Scope, requested *Location) (*Location, error) {
	if requested != nil {
		if err := sc.Require(requested.ID, requested.Type); err != nil {
			return nil, err
		}
		return requested, nil
	}
	if id, t, ok := sc.Location(); ok {
		return &Location{ID: id, Type: t}, nil
	}
	return nil, nil
}

// listAtLocation runs a read on a location-scoped table. The scope filters
// are always applied in the query and every returned row is re-checked
// against the scope predicate.
func listAtLocation[T any](
	ctx context.Context,
	sc scope.Scope,
	requested *Location,
	q repository.Query,
	list func(context.Context, repository.Query) ([]T, error),
	at func(T) Location,
) ([]T, error) {
	if sc.Denied() {
		return []T{}, nil
	}
	loc, err := target(sc, requested)
	if err != nil {
		return nil, err
	}
	if loc != nil {
		q = q.Where("location_id", loc.ID).Where("location_type", loc.Type)
	}
	rows, err := list(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		l := at(r)
		if !sc.Allows(l.ID, l.Type) {
			continue
		}
		if loc != nil && l != *loc {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// listByEndpoint runs a read on a table whose rows have a from and a to
// location. With a single location in play it issues one equality query per
// endpoint and merges the results by id, since the record store has no OR.
// The merged set is re-sorted with less and cut to q.Limit.
func listByEndpoint[T any](
	ctx context.Context,
	sc scope.Scope,
	requested *Location,
	dir Direction,
	q repository.Query,
	list func(context.Context, repository.Query) ([]T, error),
	ends func(T) edge,
	id func(T) uuid.UUID,
	less func(a, b T) bool,
) ([]T, error) {
	if sc.Denied() {
		return []T{}, nil
	}
	loc, err := target(sc, requested)
	if err != nil {
		return nil, err
	}

	var rows []T
	if loc == nil {
		if rows, err = list(ctx, q); err != nil {
			return nil, err
		}
	} else {
		var prefixes []string
		switch dir {
		case DirectionIncoming:
			prefixes = []string{"to_"}
		case DirectionOutgoing:
			prefixes = []string{"from_"}
		default:
			prefixes = []string{"from_", "to_"}
		}
		seen := make(map[uuid.UUID]struct{})
		for _, p := range prefixes {
			part, err := list(ctx, q.Where(p+"location_id", loc.ID).Where(p+"location_type", loc.Type))
			if err != nil {
				return nil, err
			}
			for _, r := range part {
				if _, dup := seen[id(r)]; dup {
					continue
				}
				seen[id(r)] = struct{}{}
				rows = append(rows, r)
			}
		}
		if len(prefixes) > 1 && less != nil {
			sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
		}
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		e := ends(r)
		if !sc.AllowsEither(e.fromID, e.fromType, e.toID, e.toType) {
			continue
		}
		if loc != nil && !e.matches(*loc, dir) {
			continue
		}
		out = append(out, r)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
