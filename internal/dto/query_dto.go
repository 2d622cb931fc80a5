package dto

// LocationQuery narrows a listing to one location. Both fields are set or
// neither is.
type LocationQuery struct {
	LocationID   string `form:"location_id" validate:"required_with=LocationType,omitempty,uuid"`
	LocationType string `form:"location_type" validate:"required_with=LocationID,omitempty,oneof=store warehouse"`
}

// TransferQuery adds direction and paging to LocationQuery.
type TransferQuery struct {
	LocationQuery
	Direction string `form:"direction" validate:"omitempty,oneof=incoming outgoing"`
	Limit     int    `form:"limit" validate:"min=0,max=500"`
}
