package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType classifies booking lifecycle events on the wire.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventPaymentCompleted EventType = "booking.payment_completed"
	EventPaymentFailed    EventType = "booking.payment_failed"
	EventPaymentExpired   EventType = "booking.payment_expired"
	EventBookingApproved  EventType = "booking.approved"
	EventBookingCancelled EventType = "booking.cancelled"
)

// BookingEvent is the message published to Kafka for every booking state
// change. Downstream consumers (notifications, analytics) key off Type.
type BookingEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     uuid.UUID `json:"user_id"`
	TripID     uuid.UUID `json:"trip_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	TotalPrice int64     `json:"total_price"`
	SeatCount  int       `json:"seat_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType EventType, bookingID, userID, tripID, providerID uuid.UUID, totalPrice int64, seatCount int) BookingEvent {
	return BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  bookingID,
		UserID:     userID,
		TripID:     tripID,
		ProviderID: providerID,
		TotalPrice: totalPrice,
		SeatCount:  seatCount,
		OccurredAt: time.Now().UTC(),
	}
}

func (e BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// GetPartitionKey keys partitioning by booking so every event of one booking
// lands on the same partition, in order.
func (e BookingEvent) GetPartitionKey() string {
	return e.BookingID.String()
}
