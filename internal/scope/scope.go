// Package scope maps an authenticated actor to the locations it may read and
// act on. It is pure: no I/O, no errors, and it never widens access when the
// actor record is incomplete.
package scope

import (
	"chainpilot/internal/apperr"
	"chainpilot/internal/model"

	"github.com/google/uuid"
)

// Actor is the identity supplied by the external auth provider on every call.
type Actor struct {
	UserID            uuid.UUID
	Email             string
	Role              string
	LinkedStoreID     *uuid.UUID
	LinkedWarehouseID *uuid.UUID
}

// ActorFromProfile builds an Actor from a stored profile.
func ActorFromProfile(p model.Profile) Actor {
	return Actor{
		UserID:            p.ID,
		Email:             p.Email,
		Role:              p.Role,
		LinkedStoreID:     p.LinkedStoreID,
		LinkedWarehouseID: p.LinkedWarehouseID,
	}
}

type kind int

const (
	kindNone kind = iota
	kindAll
	kindOne
)

// Scope is the resolved visibility of one actor. The zero value denies
// everything.
type Scope struct {
	kind         kind
	locationID   uuid.UUID
	locationType model.LocationType
}

// Resolve computes the scope of an actor.
//   - admin sees everything, unless it also carries a location binding
//   - store_manager sees only (linked_store_id, store)
//   - warehouse_manager sees only (linked_warehouse_id, warehouse)
//   - anything else sees nothing
func Resolve(a Actor) Scope {
	switch a.Role {
	case model.RoleAdmin:
		if a.LinkedStoreID != nil || a.LinkedWarehouseID != nil {
			return Scope{}
		}
		return Scope{kind: kindAll}
	case model.RoleStoreManager:
		if a.LinkedStoreID == nil || *a.LinkedStoreID == uuid.Nil || a.LinkedWarehouseID != nil {
			return Scope{}
		}
		return Scope{kind: kindOne, locationID: *a.LinkedStoreID, locationType: model.LocationStore}
	case model.RoleWarehouseManager:
		if a.LinkedWarehouseID == nil || *a.LinkedWarehouseID == uuid.Nil || a.LinkedStoreID != nil {
			return Scope{}
		}
		return Scope{kind: kindOne, locationID: *a.LinkedWarehouseID, locationType: model.LocationWarehouse}
	default:
		return Scope{}
	}
}

// Unscoped reports whether the scope covers every location.
func (s Scope) Unscoped() bool { return s.kind == kindAll }

// Denied reports whether the scope covers no location at all.
func (s Scope) Denied() bool { return s.kind == kindNone }

// Location returns the single bound location, if any.
func (s Scope) Location() (uuid.UUID, model.LocationType, bool) {
	if s.kind != kindOne {
		return uuid.Nil, "", false
	}
	return s.locationID, s.locationType, true
}

// Allows is the scope predicate.
func (s Scope) Allows(locationID uuid.UUID, t model.LocationType) bool {
	switch s.kind {
	case kindAll:
		return t.Valid()
	case kindOne:
		return locationID == s.locationID && t == s.locationType
	default:
		return false
	}
}

// AllowsEither reports whether at least one endpoint of a transfer is in scope.
func (s Scope) AllowsEither(fromID uuid.UUID, fromType model.LocationType, toID uuid.UUID, toType model.LocationType) bool {
	return s.Allows(fromID, fromType) || s.Allows(toID, toType)
}

// Require returns ErrScopeViolation when the location is not in scope.
func (s Scope) Require(locationID uuid.UUID, t model.LocationType) error {
	if s.Allows(locationID, t) {
		return nil
	}
	return apperr.Scope("%s %s", t, locationID)
}

// Label names the scope for overview headers.
func (s Scope) Label() string {
	switch s.kind {
	case kindAll:
		return "All Locations"
	case kindOne:
		if s.locationType == model.LocationStore {
			return "Store"
		}
		return "Warehouse"
	default:
		return "No Location"
	}
}

// String is used in logs.
func (s Scope) String() string {
	switch s.kind {
	case kindAll:
		return "all"
	case kindOne:
		return string(s.locationType) + ":" + s.locationID.String()
	default:
		return "none"
	}
}
