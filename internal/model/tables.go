package model

// Table names as watched on the change notification bus.
const (
	TableStores           = "stores"
	TableWarehouses       = "warehouses"
	TableProfiles         = "profiles"
	TableInventory        = "inventory"
	TableDemandForecasts  = "demand_forecasts"
	TableSuggestions      = "suggestions"
	TableTransferRequests = "transfer_requests"
	TableTransferLogs     = "transfer_logs"
)

// WatchedTables lists every table that carries a change-notification trigger.
var WatchedTables = []string{
	TableStores,
	TableWarehouses,
	TableProfiles,
	TableInventory,
	TableDemandForecasts,
	TableSuggestions,
	TableTransferRequests,
	TableTransferLogs,
}
