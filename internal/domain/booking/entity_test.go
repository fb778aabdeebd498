package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	b := NewBooking("show-1")

	assert.Equal(t, "show-1", b.ShowID)
	assert.Equal(t, StatusPending, b.Status)
	assert.True(t, b.IsPending())
}

func TestBooking_Confirm(t *testing.T) {
	t.Run("PENDINGはCONFIRMEDに遷移できる", func(t *testing.T) {
		b := NewBooking("show-1")

		err := b.Confirm()

		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, b.Status)
	})

	t.Run("FAILEDは確定できない", func(t *testing.T) {
		b := &Booking{Status: StatusFailed}
		assert.ErrorIs(t, b.Confirm(), ErrBookingNotPending)
	})

	t.Run("CONFIRMEDは再確定できない", func(t *testing.T) {
		b := &Booking{Status: StatusConfirmed}
		assert.ErrorIs(t, b.Confirm(), ErrBookingNotPending)
	})
}

func TestBooking_Fail(t *testing.T) {
	t.Run("PENDINGはFAILEDに遷移できる", func(t *testing.T) {
		b := NewBooking("show-1")

		err := b.Fail()

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, b.Status)
	})

	t.Run("終端状態からは遷移できない", func(t *testing.T) {
		b := &Booking{Status: StatusConfirmed}
		assert.ErrorIs(t, b.Fail(), ErrBookingNotPending)

		b = &Booking{Status: StatusFailed}
		assert.ErrorIs(t, b.Fail(), ErrBookingNotPending)
	})
}
