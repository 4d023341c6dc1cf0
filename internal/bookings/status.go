package bookings

// PaymentStatus tracks the payment leg of a booking. It only ever moves away
// from PENDING once, via a conditional write, so duplicate provider callbacks
// cannot flip a settled booking.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentExpired   PaymentStatus = "EXPIRED"
)

// IsValid checks whether the payment status is one of the known values.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the payment leg is settled.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentPending
}

// ReleasesSeats reports whether reaching this status hands the booking's
// seats back to the pool.
func (s PaymentStatus) ReleasesSeats() bool {
	return s == PaymentFailed || s == PaymentExpired
}

// ApprovalStatus tracks the provider's side of a booking.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "PENDING_APPROVAL"
	ApprovalConfirmed ApprovalStatus = "CONFIRMED_BY_PROVIDER"
	ApprovalCancelled ApprovalStatus = "CANCELLED"
)

// IsValid checks whether the approval status is one of the known values.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalConfirmed, ApprovalCancelled:
		return true
	}
	return false
}

// canTransitionTo reports whether the approval leg may move to target.
// PENDING_APPROVAL is the only state with outgoing edges; both
// CONFIRMED_BY_PROVIDER and CANCELLED are terminal.
func (s ApprovalStatus) canTransitionTo(target ApprovalStatus) bool {
	if s != ApprovalPending {
		return false
	}
	return target == ApprovalConfirmed || target == ApprovalCancelled
}
