package invitation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCode(t *testing.T) *Code {
	t.Helper()
	c, err := NewCode("TRELLIS-ABC123", 1)
	require.NoError(t, err)
	require.NoError(t, c.SetID(1))
	return c
}

func TestNewCode(t *testing.T) {
	c := newTestCode(t)

	assert.Equal(t, CodeStatusInactive, c.Status())
	assert.False(t, c.IsActive())
	assert.Nil(t, c.CurrentLedgerEntryID())
	assert.Equal(t, int64(0), c.TotalCumulativeUses())
	assert.Equal(t, 1, c.Version())
}

func TestNewCode_Validation(t *testing.T) {
	_, err := NewCode("", 1)
	assert.Error(t, err)

	_, err = NewCode("TRELLIS-X", 0)
	assert.Error(t, err)
}

func TestActivate(t *testing.T) {
	c := newTestCode(t)

	require.NoError(t, c.Activate(7))
	assert.True(t, c.IsActive())
	require.NotNil(t, c.CurrentLedgerEntryID())
	assert.Equal(t, uint(7), *c.CurrentLedgerEntryID())

	assert.Error(t, c.Activate(0))
}

func TestActivate_Rebind(t *testing.T) {
	c := newTestCode(t)

	require.NoError(t, c.Activate(7))
	require.NoError(t, c.Activate(9))
	assert.Equal(t, uint(9), *c.CurrentLedgerEntryID())
}

func TestDeactivate(t *testing.T) {
	c := newTestCode(t)
	require.NoError(t, c.Activate(7))

	c.Deactivate()
	assert.False(t, c.IsActive())
	assert.Nil(t, c.CurrentLedgerEntryID())

	// Deactivating an already inactive code is a no-op.
	c.Deactivate()
	assert.False(t, c.IsActive())
}

func TestRecordUse(t *testing.T) {
	c := newTestCode(t)
	require.NoError(t, c.Activate(7))

	c.RecordUse()
	c.RecordUse()
	assert.Equal(t, int64(2), c.TotalCumulativeUses())

	// The lifetime counter survives rebinding to a new entry.
	c.Deactivate()
	require.NoError(t, c.Activate(9))
	assert.Equal(t, int64(2), c.TotalCumulativeUses())
}

func TestNewRedemption(t *testing.T) {
	r, err := NewRedemption("rd_test00000001", 10, 1, 2, 3, 4)
	require.NoError(t, err)

	assert.Equal(t, uint(10), r.InvitedUserID())
	assert.Equal(t, uint(1), r.InviterPartnerID())
	assert.False(t, r.DidRenew())
	assert.Nil(t, r.RenewedAt())
	assert.False(t, r.RedeemedAt().IsZero())
}

func TestNewRedemption_Validation(t *testing.T) {
	_, err := NewRedemption("", 10, 1, 2, 3, 4)
	assert.Error(t, err)

	_, err = NewRedemption("rd_x", 0, 1, 2, 3, 4)
	assert.Error(t, err)

	_, err = NewRedemption("rd_x", 10, 0, 2, 3, 4)
	assert.Error(t, err)

	_, err = NewRedemption("rd_x", 10, 1, 0, 3, 4)
	assert.Error(t, err)

	_, err = NewRedemption("rd_x", 10, 1, 2, 0, 4)
	assert.Error(t, err)

	_, err = NewRedemption("rd_x", 10, 1, 2, 3, 0)
	assert.Error(t, err)
}

func TestMarkConverted(t *testing.T) {
	r, err := NewRedemption("rd_test00000001", 10, 1, 2, 3, 4)
	require.NoError(t, err)

	r.MarkConverted()
	assert.True(t, r.DidRenew())
	require.NotNil(t, r.RenewedAt())

	// Marking twice keeps the first conversion timestamp.
	first := *r.RenewedAt()
	r.MarkConverted()
	assert.Equal(t, first, *r.RenewedAt())
}
