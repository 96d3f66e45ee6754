package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
)

func TestNewSerialRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	productID, _ := id.ParseProductID("550e8400-e29b-41d4-a716-446655440000")

	t.Run("starts available and unowned", func(t *testing.T) {
		rec, err := NewSerialRecord(id.NewSerialID(), productID, "SN-001", now)
		require.NoError(t, err)
		assert.Equal(t, StatusAvailable, rec.Status)
		assert.Nil(t, rec.OwnerID)
		assert.NoError(t, rec.CheckInvariants())
	})

	t.Run("rejects blank and padded codes", func(t *testing.T) {
		for _, code := range []string{"", "   ", " SN-001"} {
			_, err := NewSerialRecord(id.NewSerialID(), productID, code, now)
			require.Error(t, err, code)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		}
	})

	t.Run("requires product", func(t *testing.T) {
		_, err := NewSerialRecord(id.NewSerialID(), id.ProductID{}, "SN-001", now)
		require.Error(t, err)
	})
}

func TestApplyTransition(t *testing.T) {
	now := time.Now()
	productID, _ := id.ParseProductID("550e8400-e29b-41d4-a716-446655440000")
	rec, err := NewSerialRecord(id.NewSerialID(), productID, "SN-002", now)
	require.NoError(t, err)

	owner, _ := id.ParseUserID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	name := "Alice"
	rec.ApplyTransition(StatusRegistered, SerialChanges{OwnerID: &owner, CustomerName: &name}, now)

	assert.Equal(t, StatusRegistered, rec.Status)
	assert.True(t, rec.IsOwnedBy(owner))
	assert.Equal(t, "Alice", rec.CustomerName)
	assert.NoError(t, rec.CheckInvariants())

	clone := rec.Clone()
	*clone.OwnerID = id.UserID{}
	assert.True(t, rec.IsOwnedBy(owner), "clone must not alias owner")

	rec.ApplyTransition(StatusClaimed, SerialChanges{}, now)
	assert.Error(t, rec.CheckInvariants(), "claimed without claim reference breaks linkage")
}

func TestSerialFilter(t *testing.T) {
	owner, _ := id.ParseUserID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	other, _ := id.ParseUserID("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
	registered := StatusRegistered
	rec := &SerialRecord{Status: StatusRegistered, OwnerID: &owner}

	assert.True(t, SerialFilter{}.Matches(rec))
	assert.True(t, SerialFilter{OwnerID: &owner, Status: &registered}.Matches(rec))
	assert.False(t, SerialFilter{OwnerID: &other}.Matches(rec))
	assert.False(t, SerialFilter{OwnerID: &owner}.Matches(&SerialRecord{Status: StatusAvailable}))
}
