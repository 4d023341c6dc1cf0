package seats

type HoldSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required,uuid"`
}

type HoldSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,max=10,dive,uuid"`
}

type ReleaseSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,max=10,dive,uuid"`
}
