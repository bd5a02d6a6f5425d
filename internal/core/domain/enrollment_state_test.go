package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  EnrollmentStatus
		event EnrollmentEvent
		want  bool
	}{
		{"initiate from initiated", EnrollmentInitiated, EventInitiatePayment, true},
		{"retry after failure", EnrollmentFailed, EventInitiatePayment, true},
		{"retry after cancel", EnrollmentCancelled, EventInitiatePayment, true},
		{"no initiate when paid", EnrollmentPaid, EventInitiatePayment, false},
		{"no initiate when refunded", EnrollmentRefunded, EventInitiatePayment, false},
		{"verify from awaiting", EnrollmentAwaitingPayment, EventPaymentVerified, true},
		{"late verify after expiry", EnrollmentCancelled, EventPaymentVerified, true},
		{"verify after refund", EnrollmentRefunded, EventPaymentVerified, false},
		{"verify twice", EnrollmentPaid, EventPaymentVerified, false},
		{"fail from awaiting", EnrollmentAwaitingPayment, EventPaymentFailed, true},
		{"fail after paid", EnrollmentPaid, EventPaymentFailed, false},
		{"cancel after paid", EnrollmentPaid, EventPaymentCancel, false},
		{"admin confirm failed", EnrollmentFailed, EventAdminConfirm, true},
		{"admin confirm paid", EnrollmentPaid, EventAdminConfirm, false},
		{"refund paid", EnrollmentPaid, EventRefund, true},
		{"refund awaiting", EnrollmentAwaitingPayment, EventRefund, false},
		{"refund twice", EnrollmentRefunded, EventRefund, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanApply(tt.event))
		})
	}
}

func TestTransitionTargets(t *testing.T) {
	_, to, ok := Transition(EventPaymentVerified)
	assert.True(t, ok)
	assert.Equal(t, EnrollmentPaid, to)

	_, to, ok = Transition(EventRefund)
	assert.True(t, ok)
	assert.Equal(t, EnrollmentRefunded, to)

	_, _, ok = Transition(EnrollmentEvent("bogus"))
	assert.False(t, ok)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, EnrollmentInitiated.IsPending())
	assert.True(t, EnrollmentAwaitingPayment.IsPending())
	assert.False(t, EnrollmentPaid.IsPending())
	assert.True(t, EnrollmentPaid.HasAccess())
	assert.False(t, EnrollmentRefunded.HasAccess())
	assert.True(t, RoleInstructor.Valid())
	assert.False(t, Role("root").Valid())
	assert.True(t, UserBlocked.Valid())
}
