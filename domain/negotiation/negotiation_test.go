package negotiation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2020, time.June, 1, 12, 0, 0, 0, time.UTC)

// negotiationIn builds a negotiation in an arbitrary state. Offers were made half an hour ago,
// the employee responded ten minutes ago.
func negotiationIn(status Status, attemptsLeft int) *Negotiation {
	n := start(uuid.New(), uuid.New(), decimal.NewFromInt(100), now.Add(-time.Hour))
	n.status = status
	n.attemptsLeft = attemptsLeft
	switch status {
	case ClientOffered, RejectedByEmployee, AcceptedByEmployee:
		lastOffer := now.Add(-30 * time.Minute)
		n.currentProposedPrice = decimal.NewFromInt(90)
		n.lastOfferAt = &lastOffer
	}
	switch status {
	case RejectedByEmployee, AcceptedByEmployee:
		response := now.Add(-10 * time.Minute)
		n.employeeResponseAt = &response
	}
	return n
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// assertInvariants checks the properties that must hold after every operation.
func assertInvariants(t *testing.T, n *Negotiation) {
	t.Helper()
	assert.GreaterOrEqual(t, n.AttemptsLeft(), 0)
	assert.LessOrEqual(t, n.AttemptsLeft(), MaxAttempts)
	switch n.Status() {
	case ClientOffered, RejectedByEmployee, AcceptedByEmployee:
		assert.True(t, n.CurrentProposedPrice().IsPositive(), "proposed price must be positive in %s", n.Status())
	}
	switch n.Status() {
	case RejectedByEmployee, AcceptedByEmployee:
		assert.NotNil(t, n.EmployeeResponseAt(), "response date must be set in %s", n.Status())
	}
	if n.AttemptsLeft() == 0 {
		assert.Equal(t, Cancelled, n.Status())
	}
}

func TestNew(t *testing.T) {
	productID := uuid.New()

	n := New(productID, price(100), now)

	assert.NotEqual(t, uuid.Nil, n.ID())
	assert.Equal(t, productID, n.ProductID())
	assert.Equal(t, PendingClientOffer, n.Status())
	assert.Equal(t, MaxAttempts, n.AttemptsLeft())
	assert.True(t, price(100).Equal(n.CurrentProposedPrice()))
	assert.True(t, price(100).Equal(n.InitialPrice()))
	assert.Equal(t, now, n.StartedAt())
	assert.Nil(t, n.LastOfferAt())
	assert.Nil(t, n.EmployeeResponseAt())
	assert.NotEqual(t, n.ID(), New(productID, price(100), now).ID())
	assertInvariants(t, n)
}

func TestNegotiation_ProposePrice(t *testing.T) {
	t.Run("ok - first offer", func(t *testing.T) {
		n := New(uuid.New(), price(100), now)

		require.NoError(t, n.ProposePrice(price(90), now))

		assert.Equal(t, ClientOffered, n.Status())
		assert.True(t, price(90).Equal(n.CurrentProposedPrice()))
		assert.Equal(t, now, *n.LastOfferAt())
		assert.Equal(t, MaxAttempts, n.AttemptsLeft())
		assertInvariants(t, n)
	})

	t.Run("ok - new offer after rejection within the response window", func(t *testing.T) {
		n := negotiationIn(RejectedByEmployee, 2)

		require.NoError(t, n.ProposePrice(price(85), now.Add(7*24*time.Hour-10*time.Minute)))

		assert.Equal(t, ClientOffered, n.Status())
		assert.Equal(t, 2, n.AttemptsLeft())
	})

	t.Run("err - non positive prices", func(t *testing.T) {
		for _, status := range []Status{PendingClientOffer, RejectedByEmployee} {
			for _, p := range []decimal.Decimal{price(0), price(-5)} {
				n := negotiationIn(status, 2)
				err := n.ProposePrice(p, now)
				assert.True(t, errors.Is(err, domain.ErrInvalidPrice), "%s with %s: %v", status, p, err)
				assert.Equal(t, "proposed price has to be more than 0", err.Error())
			}
		}
	})

	t.Run("err - wrong status reports the status", func(t *testing.T) {
		for _, status := range []Status{ClientOffered, AcceptedByEmployee} {
			n := negotiationIn(status, 2)
			err := n.ProposePrice(price(50), now)
			assert.True(t, errors.Is(err, domain.ErrInvalidState))
			assert.Equal(t, "offer status is "+string(status)+", you can not negotiate now", err.Error())
		}
	})

	t.Run("err - attempts are checked before the status", func(t *testing.T) {
		n := negotiationIn(Cancelled, 0)

		err := n.ProposePrice(price(-1), now)

		assert.True(t, errors.Is(err, domain.ErrAttemptsExceeded))
	})

	t.Run("err - status is checked before the price", func(t *testing.T) {
		n := negotiationIn(AcceptedByEmployee, 3)

		err := n.ProposePrice(price(-1), now)

		assert.True(t, errors.Is(err, domain.ErrInvalidState))
	})

	t.Run("err - response window exceeded cancels the negotiation", func(t *testing.T) {
		n := negotiationIn(RejectedByEmployee, 2)
		responded := now.Add(-8 * 24 * time.Hour)
		n.employeeResponseAt = &responded

		err := n.ProposePrice(price(80), now)

		assert.True(t, errors.Is(err, domain.ErrResponseTimeExceeded))
		assert.Equal(t, "client has exceeded response time, negotiation has been canceled", err.Error())
		assert.Equal(t, Cancelled, n.Status())
		assert.Equal(t, ReasonResponseTimeExceeded, n.CancellationReason())
		assert.True(t, price(90).Equal(n.CurrentProposedPrice()))
		assert.Equal(t, 2, n.AttemptsLeft())
	})

	t.Run("ok - exactly seven days is still in time", func(t *testing.T) {
		n := negotiationIn(RejectedByEmployee, 2)

		require.NoError(t, n.ProposePrice(price(80), n.EmployeeResponseAt().Add(ClientResponseWindow)))
		assert.Equal(t, ClientOffered, n.Status())
	})

	t.Run("ok - price is checked before the response window", func(t *testing.T) {
		n := negotiationIn(RejectedByEmployee, 2)
		responded := now.Add(-8 * 24 * time.Hour)
		n.employeeResponseAt = &responded

		err := n.ProposePrice(price(0), now)

		assert.True(t, errors.Is(err, domain.ErrInvalidPrice))
		assert.Equal(t, RejectedByEmployee, n.Status())
	})
}

func TestNegotiation_FailuresLeaveStateUnchanged(t *testing.T) {
	cases := map[string]struct {
		n  *Negotiation
		op func(n *Negotiation) error
	}{
		"propose on accepted": {negotiationIn(AcceptedByEmployee, 3), func(n *Negotiation) error { return n.ProposePrice(price(10), now) }},
		"propose zero":        {negotiationIn(PendingClientOffer, 3), func(n *Negotiation) error { return n.ProposePrice(price(0), now) }},
		"propose exhausted":   {negotiationIn(Cancelled, 0), func(n *Negotiation) error { return n.ProposePrice(price(10), now) }},
		"accept on pending":   {negotiationIn(PendingClientOffer, 3), func(n *Negotiation) error { return n.AcceptOffer(now) }},
		"reject on rejected":  {negotiationIn(RejectedByEmployee, 2), func(n *Negotiation) error { return n.RejectOffer(now) }},
		"cancel on accepted":  {negotiationIn(AcceptedByEmployee, 3), func(n *Negotiation) error { return n.Cancel("no") }},
		"cancel on cancelled": {negotiationIn(Cancelled, 1), func(n *Negotiation) error { return n.Cancel("no") }},
	}

	for name, testcase := range cases {
		t.Run(name, func(t *testing.T) {
			before := *testcase.n

			assert.Error(t, testcase.op(testcase.n))
			assert.Equal(t, before, *testcase.n)
		})
	}
}

func TestNegotiation_AcceptOffer(t *testing.T) {
	t.Run("ok - propose then accept", func(t *testing.T) {
		n := New(uuid.New(), price(100), now)
		require.NoError(t, n.ProposePrice(price(95), now))

		require.NoError(t, n.AcceptOffer(now.Add(time.Minute)))

		assert.Equal(t, AcceptedByEmployee, n.Status())
		assert.True(t, price(95).Equal(n.CurrentProposedPrice()))
		assert.Equal(t, now.Add(time.Minute), *n.EmployeeResponseAt())
		assert.Equal(t, MaxAttempts, n.AttemptsLeft())
		assertInvariants(t, n)
	})

	t.Run("err - accepted negotiation is terminal", func(t *testing.T) {
		n := New(uuid.New(), price(100), now)
		require.NoError(t, n.ProposePrice(price(95), now))
		require.NoError(t, n.AcceptOffer(now))

		assert.True(t, errors.Is(n.ProposePrice(price(96), now), domain.ErrInvalidState))
		assert.True(t, errors.Is(n.AcceptOffer(now), domain.ErrInvalidState))
		assert.True(t, errors.Is(n.RejectOffer(now), domain.ErrInvalidState))
		assert.True(t, errors.Is(n.Cancel(""), domain.ErrInvalidState))
		assert.Equal(t, AcceptedByEmployee, n.Status())
	})

	t.Run("err - message reports the status", func(t *testing.T) {
		err := negotiationIn(RejectedByEmployee, 2).AcceptOffer(now)

		assert.Equal(t, "can not accept, negotiation state is RejectedByEmployee", err.Error())
	})
}

func TestNegotiation_RejectOffer(t *testing.T) {
	t.Run("ok - uses an attempt", func(t *testing.T) {
		n := negotiationIn(ClientOffered, 3)

		require.NoError(t, n.RejectOffer(now))

		assert.Equal(t, RejectedByEmployee, n.Status())
		assert.Equal(t, 2, n.AttemptsLeft())
		assert.Equal(t, now, *n.EmployeeResponseAt())
		assertInvariants(t, n)
	})

	t.Run("ok - last attempt cancels silently", func(t *testing.T) {
		n := negotiationIn(ClientOffered, 1)

		require.NoError(t, n.RejectOffer(now))

		assert.Equal(t, Cancelled, n.Status())
		assert.Equal(t, 0, n.AttemptsLeft())
		assert.Equal(t, ReasonAttemptsExhausted, n.CancellationReason())
		assertInvariants(t, n)
	})

	t.Run("err - message reports the status", func(t *testing.T) {
		err := negotiationIn(PendingClientOffer, 3).RejectOffer(now)

		assert.True(t, errors.Is(err, domain.ErrInvalidState))
		assert.Equal(t, "can not reject, negotiation state is PendingClientOffer", err.Error())
	})
}

func TestNegotiation_Cancel(t *testing.T) {
	n := New(uuid.New(), price(100), now)

	require.NoError(t, n.Cancel("changed my mind"))
	assert.Equal(t, Cancelled, n.Status())
	assert.Equal(t, "changed my mind", n.CancellationReason())

	err := n.Cancel("again")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Equal(t, "negotiation has already been accepted or canceled", err.Error())
	assert.Equal(t, "changed my mind", n.CancellationReason())
}

func TestNegotiation_CancelWithoutReason(t *testing.T) {
	for name, reason := range map[string]string{"empty": "", "blank": "  "} {
		t.Run(name, func(t *testing.T) {
			n := New(uuid.New(), price(100), now)

			require.NoError(t, n.Cancel(reason))
			assert.Equal(t, Cancelled, n.Status())
			assert.Equal(t, "negotiation canceled", n.CancellationReason())
		})
	}
}

func TestNegotiation_ThreeRejectionsCancel(t *testing.T) {
	n := New(uuid.New(), price(100), now)
	at := now

	for i, offer := range []int64{90, 85, 80} {
		at = at.Add(time.Hour)
		require.NoError(t, n.ProposePrice(price(offer), at))
		require.NoError(t, n.RejectOffer(at))
		assert.Equal(t, MaxAttempts-i-1, n.AttemptsLeft())
		assertInvariants(t, n)
	}

	assert.Equal(t, Cancelled, n.Status())
	assert.Equal(t, 0, n.AttemptsLeft())
	assert.True(t, price(80).Equal(n.CurrentProposedPrice()))

	err := n.ProposePrice(price(75), at)
	assert.True(t, errors.Is(err, domain.ErrAttemptsExceeded))
	assert.Equal(t, Cancelled, n.Status())
}

func TestNegotiation_Queries(t *testing.T) {
	t.Run("CanClientProposeNewPrice", func(t *testing.T) {
		expected := map[Status]bool{
			PendingClientOffer: true,
			ClientOffered:      false,
			RejectedByEmployee: true,
			AcceptedByEmployee: false,
			Cancelled:          false,
		}
		for status, can := range expected {
			assert.Equal(t, can, negotiationIn(status, 2).CanClientProposeNewPrice(), status.String())
		}
	})

	t.Run("IsExpiredForClientResponse", func(t *testing.T) {
		rejected := negotiationIn(RejectedByEmployee, 2)
		respondedAt := *rejected.EmployeeResponseAt()

		assert.False(t, rejected.IsExpiredForClientResponse(respondedAt.Add(ClientResponseWindow)))
		assert.True(t, rejected.IsExpiredForClientResponse(respondedAt.Add(ClientResponseWindow+time.Second)))
		assert.False(t, negotiationIn(AcceptedByEmployee, 2).IsExpiredForClientResponse(now.Add(30*24*time.Hour)))
		assert.False(t, negotiationIn(PendingClientOffer, 3).IsExpiredForClientResponse(now.Add(30*24*time.Hour)))
		assert.Equal(t, RejectedByEmployee, rejected.Status())
	})
}
