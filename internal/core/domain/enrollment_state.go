package domain

// EnrollmentStatus is the single payment/access state of an enrollment.
//
//	initiated ─▶ awaiting_payment ─▶ paid ─▶ refunded
//	                 │      └──────▶ failed | cancelled ─▶ awaiting_payment (new attempt)
//	initiated | awaiting_payment | failed | cancelled ─▶ paid (verified capture, admin confirm)
type EnrollmentStatus string

const (
	EnrollmentInitiated       EnrollmentStatus = "initiated"
	EnrollmentAwaitingPayment EnrollmentStatus = "awaiting_payment"
	EnrollmentPaid            EnrollmentStatus = "paid"
	EnrollmentFailed          EnrollmentStatus = "failed"
	EnrollmentCancelled       EnrollmentStatus = "cancelled"
	EnrollmentRefunded        EnrollmentStatus = "refunded"
)

// EnrollmentEvent is an input to the enrollment state machine
type EnrollmentEvent string

const (
	EventInitiatePayment EnrollmentEvent = "initiate_payment"
	EventPaymentVerified EnrollmentEvent = "payment_verified"
	EventPaymentFailed   EnrollmentEvent = "payment_failed"
	EventPaymentCancel   EnrollmentEvent = "payment_cancelled"
	EventAdminConfirm    EnrollmentEvent = "admin_confirm"
	EventRefund          EnrollmentEvent = "refund"
)

type transition struct {
	from []EnrollmentStatus
	to   EnrollmentStatus
}

var enrollmentTransitions = map[EnrollmentEvent]transition{
	EventInitiatePayment: {
		from: []EnrollmentStatus{EnrollmentInitiated, EnrollmentAwaitingPayment, EnrollmentFailed, EnrollmentCancelled},
		to:   EnrollmentAwaitingPayment,
	},
	// a gateway-verified capture wins even after the session failed or expired
	EventPaymentVerified: {
		from: []EnrollmentStatus{EnrollmentInitiated, EnrollmentAwaitingPayment, EnrollmentFailed, EnrollmentCancelled},
		to:   EnrollmentPaid,
	},
	EventPaymentFailed: {
		from: []EnrollmentStatus{EnrollmentAwaitingPayment},
		to:   EnrollmentFailed,
	},
	EventPaymentCancel: {
		from: []EnrollmentStatus{EnrollmentAwaitingPayment},
		to:   EnrollmentCancelled,
	},
	EventAdminConfirm: {
		from: []EnrollmentStatus{EnrollmentInitiated, EnrollmentAwaitingPayment, EnrollmentFailed, EnrollmentCancelled},
		to:   EnrollmentPaid,
	},
	EventRefund: {
		from: []EnrollmentStatus{EnrollmentPaid},
		to:   EnrollmentRefunded,
	},
}

// Transition returns the source states that accept ev and the resulting state.
// Storage applies it as a conditional update so concurrent callers cannot both win.
func Transition(ev EnrollmentEvent) (from []EnrollmentStatus, to EnrollmentStatus, ok bool) {
	t, ok := enrollmentTransitions[ev]
	if !ok {
		return nil, "", false
	}
	return t.from, t.to, true
}

// CanApply reports whether ev is accepted from the given state
func (s EnrollmentStatus) CanApply(ev EnrollmentEvent) bool {
	from, _, ok := Transition(ev)
	if !ok {
		return false
	}
	for _, f := range from {
		if f == s {
			return true
		}
	}
	return false
}

// IsPending maps to the "pending" payment status of the public API
func (s EnrollmentStatus) IsPending() bool {
	return s == EnrollmentInitiated || s == EnrollmentAwaitingPayment
}

// HasAccess reports whether the student may consume the course
func (s EnrollmentStatus) HasAccess() bool {
	return s == EnrollmentPaid
}
