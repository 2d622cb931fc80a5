package view

import (
	"context"

	"chainpilot/internal/derive"
	"chainpilot/internal/model"
	"chainpilot/internal/projection"
	"chainpilot/internal/scope"
)

// InventoryRow is an inventory item with its derived presentation fields.
type InventoryRow struct {
	model.InventoryItem
	StockLevel   derive.Level `json:"stock_level"`
	LowStock     bool         `json:"low_stock"`
	LocationName string       `json:"location_name"`
}

type DashboardSnapshot struct {
	Title              string         `json:"title"`
	Location           string         `json:"location"`
	Totals             derive.Totals  `json:"totals"`
	PendingSuggestions int            `json:"pending_suggestions"`
	LocationCount      int            `json:"location_count"`
	Items              []InventoryRow `json:"items"`
	Status
}

// Dashboard is the overview for one actor: its inventory, open suggestions
// and the location directory.
type Dashboard struct {
	base
	scope       scope.Scope
	inventory   *projection.Cache[model.InventoryItem]
	suggestions *projection.Cache[model.Suggestion]
	stores      *projection.Cache[model.Store]
	warehouses  *projection.Cache[model.Warehouse]
}

func OpenDashboard(ctx context.Context, d Deps, actor scope.Actor) (v *Dashboard, err error) {
	v = &Dashboard{scope: scope.Resolve(actor)}
	v.init()
	defer func() {
		if err != nil {
			v.Close()
			v = nil
		}
	}()

	if v.inventory, err = open(ctx, &v.base, d, model.TableInventory,
		func(ctx context.Context) ([]model.InventoryItem, error) { return d.Inventory.List(ctx, actor, nil) },
		func(i model.InventoryItem) string { return i.ID.String() }); err != nil {
		return v, err
	}
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

func (v *Dashboard) patchSuggestion(s model.Suggestion) { patchSuggestion(v.suggestions, s) }

func (v *Dashboard) Snapshot() DashboardSnapshot {
	inv := v.inventory.Snapshot()
	sug := v.suggestions.Snapshot()
	stores := v.stores.Snapshot()
	warehouses := v.warehouses.Snapshot()

	st := newStatus()
	add(st, inv)
	add(st, sug)
	add(st, stores)
	add(st, warehouses)

	names := derive.LocationNames(stores.Items, warehouses.Items)
	title, location := overviewHeader(v.scope, names)
	return DashboardSnapshot{
		Title:              title,
		Location:           location,
		Totals:             derive.AggregateTotals(inv.Items, v.scope),
		PendingSuggestions: len(derive.PendingSuggestions(sug.Items)),
		LocationCount:      len(stores.Items) + len(warehouses.Items),
		Items:              inventoryRows(inv.Items, v.scope, names),
		Status:             st.s,
	}
}

func overviewHeader(sc scope.Scope, names map[derive.LocationKey]string) (string, string) {
	id, t, ok := sc.Location()
	if !ok {
		return "System Overview", sc.Label()
	}
	name, found := names[derive.LocationKey{ID: id, Type: t}]
	if !found {
		name = sc.Label()
	}
	if t == model.LocationWarehouse {
		return "My Warehouse Overview", name
	}
	return "My Store Overview", name
}

func inventoryRows(items []model.InventoryItem, sc scope.Scope, names map[derive.LocationKey]string) []InventoryRow {
	rows := make([]InventoryRow, 0, len(items))
	for _, it := range items {
		if !sc.Allows(it.LocationID, it.LocationType) {
			continue
		}
		rows = append(rows, InventoryRow{
			InventoryItem: it,
			StockLevel:    derive.StockLevel(it),
			LowStock:      derive.IsLowStock(it),
			LocationName:  derive.LocationName(names, it.LocationID, it.LocationType),
		})
	}
	return rows
}

func suggestionKey(s model.Suggestion) string { return s.ID.String() }
