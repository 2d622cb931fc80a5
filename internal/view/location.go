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

// LocationInfo is the header of a location page, common to both variants.
type LocationInfo struct {
	ID          uuid.UUID          `json:"id"`
	Type        model.LocationType `json:"type"`
	Name        string             `json:"name"`
	Location    string             `json:"location"`
	MaxCapacity int                `json:"max_capacity"`
}

type LocationSnapshot struct {
	Location          LocationInfo            `json:"location"`
	Items             []InventoryRow          `json:"items"`
	LowStock          []model.InventoryItem   `json:"low_stock"`
	Totals            derive.Totals           `json:"totals"`
	Capacity          derive.Utilization      `json:"capacity"`
	Forecasts         []model.DemandForecast  `json:"forecasts"`
	IncomingTransfers []model.TransferRequest `json:"incoming_transfers"`
	Flow              derive.TransferFlow     `json:"flow"`
	Status
}

// Location is the page of one store or warehouse.
type Location struct {
	base
	scope     scope.Scope
	at        service.Location
	info      *projection.Cache[LocationInfo]
	inventory *projection.Cache[model.InventoryItem]
	forecasts *projection.Cache[model.DemandForecast]
	transfers *projection.Cache[model.TransferRequest]
}

// OpenLocation opens the page of at. An actor outside at gets a
// ScopeViolation before anything is subscribed.
func OpenLocation(ctx context.Context, d Deps, actor scope.Actor, at service.Location) (v *Location, err error) {
	sc := scope.Resolve(actor)
	if err := sc.Require(at.ID, at.Type); err != nil {
		return nil, err
	}
	if err := d.Locations.Exists(ctx, at); err != nil {
		return nil, err
	}

	v = &Location{scope: sc, at: at}
	v.init()
	defer func() {
		if err != nil {
			v.Close()
			v = nil
		}
	}()

	table, loadInfo := infoLoader(d, at)
	if v.info, err = open(ctx, &v.base, d, table, loadInfo, nil); err != nil {
		return v, err
	}
	if v.inventory, err = open(ctx, &v.base, d, model.TableInventory,
		func(ctx context.Context) ([]model.InventoryItem, error) { return d.Inventory.List(ctx, actor, &at) },
		func(i model.InventoryItem) string { return i.ID.String() }); err != nil {
		return v, err
	}
	if v.forecasts, err = open(ctx, &v.base, d, model.TableDemandForecasts,
		func(ctx context.Context) ([]model.DemandForecast, error) {
			return d.Forecasts.List(ctx, actor, &at, service.ForecastHorizon)
		}, nil); err != nil {
		return v, err
	}
	if v.transfers, err = open(ctx, &v.base, d, model.TableTransferRequests,
		func(ctx context.Context) ([]model.TransferRequest, error) {
			return d.Transfers.ListRequests(ctx, actor, service.TransferFilter{At: &at})
		}, nil); err != nil {
		return v, err
	}
	v.start()
	return v, nil
}

func infoLoader(d Deps, at service.Location) (string, func(context.Context) ([]LocationInfo, error)) {
	if at.Type == model.LocationWarehouse {
		return model.TableWarehouses, func(ctx context.Context) ([]LocationInfo, error) {
			ws, err := d.Locations.Warehouses(ctx)
			if err != nil {
				return nil, err
			}
			for _, w := range ws {
				if w.ID == at.ID {
					return []LocationInfo{{ID: w.ID, Type: at.Type, Name: w.Name, Location: w.Location, MaxCapacity: w.MaxCapacity}}, nil
				}
			}
			return []LocationInfo{}, nil
		}
	}
	return model.TableStores, func(ctx context.Context) ([]LocationInfo, error) {
		ss, err := d.Locations.Stores(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range ss {
			if s.ID == at.ID {
				return []LocationInfo{{ID: s.ID, Type: at.Type, Name: s.Name, Location: s.Location, MaxCapacity: s.MaxCapacity}}, nil
			}
		}
		return []LocationInfo{}, nil
	}
}

func (v *Location) Snapshot() LocationSnapshot {
	info := v.info.Snapshot()
	inv := v.inventory.Snapshot()
	fc := v.forecasts.Snapshot()
	tr := v.transfers.Snapshot()

	st := newStatus()
	add(st, info)
	add(st, inv)
	add(st, fc)
	add(st, tr)

	header := LocationInfo{ID: v.at.ID, Type: v.at.Type}
	if len(info.Items) > 0 {
		header = info.Items[0]
	} else {
		header.Name = derive.LocationName(nil, v.at.ID, v.at.Type)
	}
	names := map[derive.LocationKey]string{{ID: v.at.ID, Type: v.at.Type}: header.Name}

	totals := derive.AggregateTotals(inv.Items, v.scope)
	capacity := header.MaxCapacity
	if capacity <= 0 {
		capacity = totals.TotalCapacity
	}

	incoming := make([]model.TransferRequest, 0, service.RecentTransfers)
	for _, t := range tr.Items {
		if t.ToLocationID == v.at.ID && t.ToLocationType == v.at.Type && len(incoming) < service.RecentTransfers {
			incoming = append(incoming, t)
		}
	}

	return LocationSnapshot{
		Location:          header,
		Items:             inventoryRows(inv.Items, v.scope, names),
		LowStock:          derive.LowStockItems(inv.Items),
		Totals:            totals,
		Capacity:          derive.CapacityUtilization(totals.TotalStock, capacity),
		Forecasts:         fc.Items,
		IncomingTransfers: incoming,
		Flow:              derive.TransferDirection(tr.Items, v.at.ID, v.at.Type),
		Status:            st.s,
	}
}
