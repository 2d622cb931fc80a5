package derive

import (
	"chainpilot/internal/model"

	"github.com/google/uuid"
)

const (
	UnknownStore     = "Unknown Store"
	UnknownWarehouse = "Unknown Warehouse"
)

// LocationKey identifies a location across both variants.
type LocationKey struct {
	ID   uuid.UUID
	Type model.LocationType
}

// LocationNames indexes store and warehouse names for client-side lookups.
func LocationNames(stores []model.Store, warehouses []model.Warehouse) map[LocationKey]string {
	names := make(map[LocationKey]string, len(stores)+len(warehouses))
	for _, s := range stores {
		names[LocationKey{ID: s.ID, Type: model.LocationStore}] = s.Name
	}
	for _, w := range warehouses {
		names[LocationKey{ID: w.ID, Type: model.LocationWarehouse}] = w.Name
	}
	return names
}

// LocationName resolves a location, falling back to a per-variant placeholder.
func LocationName(names map[LocationKey]string, id uuid.UUID, t model.LocationType) string {
	if n, ok := names[LocationKey{ID: id, Type: t}]; ok {
		return n
	}
	if t == model.LocationWarehouse {
		return UnknownWarehouse
	}
	return UnknownStore
}

// TransferFlow counts transfers into and out of one location.
type TransferFlow struct {
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
}

func TransferDirection(transfers []model.TransferRequest, id uuid.UUID, t model.LocationType) TransferFlow {
	var f TransferFlow
	for _, tr := range transfers {
		if tr.ToLocationID == id && tr.ToLocationType == t {
			f.Incoming++
		}
		if tr.FromLocationID == id && tr.FromLocationType == t {
			f.Outgoing++
		}
	}
	return f
}
