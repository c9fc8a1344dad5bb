package campaign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCampaign(t *testing.T) *Campaign {
	t.Helper()
	start := time.Now().UTC().Add(-time.Hour)
	end := start.Add(30 * 24 * time.Hour)
	c, err := NewCampaign("cmp_test0000001", 1, 1000, start, end, 50)
	require.NoError(t, err)
	require.NoError(t, c.SetID(1))
	return c
}

func TestNewCampaign(t *testing.T) {
	c := newTestCampaign(t)

	assert.Equal(t, StatusActive, c.Status())
	assert.Equal(t, int64(1000), c.TotalAllocated())
	assert.Equal(t, int64(50), c.RenewalRequirement())
	assert.Equal(t, 1, c.Version())
	assert.True(t, c.IsActive())
}

func TestNewCampaign_Validation(t *testing.T) {
	start := time.Now().UTC()
	end := start.Add(time.Hour)

	_, err := NewCampaign("", 1, 100, start, end, 0)
	assert.Error(t, err)

	_, err = NewCampaign("cmp_x", 0, 100, start, end, 0)
	assert.Error(t, err)

	_, err = NewCampaign("cmp_x", 1, 0, start, end, 0)
	assert.Error(t, err)

	_, err = NewCampaign("cmp_x", 1, 100, start, end, -1)
	assert.Error(t, err)

	// End must come after start.
	_, err = NewCampaign("cmp_x", 1, 100, end, start, 0)
	assert.Error(t, err)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusActive.CanTransitionTo(StatusInactive))
	assert.True(t, StatusActive.CanTransitionTo(StatusExpired))
	assert.True(t, StatusActive.CanTransitionTo(StatusDeleted))
	assert.True(t, StatusInactive.CanTransitionTo(StatusActive))
	assert.True(t, StatusExpired.CanTransitionTo(StatusDeleted))

	assert.False(t, StatusExpired.CanTransitionTo(StatusActive))
	assert.False(t, StatusExpired.CanTransitionTo(StatusInactive))
	assert.False(t, StatusDeleted.CanTransitionTo(StatusActive))
	assert.False(t, StatusDeleted.CanTransitionTo(StatusExpired))
}

func TestSetStatus(t *testing.T) {
	c := newTestCampaign(t)

	require.NoError(t, c.SetStatus(StatusInactive))
	assert.Equal(t, StatusInactive, c.Status())
	assert.False(t, c.IsActive())

	require.NoError(t, c.SetStatus(StatusActive))
	require.NoError(t, c.SetStatus(StatusExpired))

	err := c.SetStatus(StatusActive)
	assert.Error(t, err)
	assert.Equal(t, StatusExpired, c.Status())
}

func TestSetStatus_SameStatusIsNoop(t *testing.T) {
	c := newTestCampaign(t)

	require.NoError(t, c.SetStatus(StatusActive))
	assert.Equal(t, StatusActive, c.Status())
}

func TestSetStatus_DeletedIsTerminal(t *testing.T) {
	c := newTestCampaign(t)

	require.NoError(t, c.SetStatus(StatusDeleted))
	assert.Error(t, c.SetStatus(StatusActive))
	assert.Error(t, c.SetStatus(StatusInactive))
	assert.Error(t, c.SetStatus(StatusExpired))
}

func TestIncreaseAllocation(t *testing.T) {
	c := newTestCampaign(t)

	require.NoError(t, c.IncreaseAllocation(1500))
	assert.Equal(t, int64(1500), c.TotalAllocated())

	// Decreasing the ceiling is rejected.
	err := c.IncreaseAllocation(1000)
	assert.Error(t, err)
	assert.Equal(t, int64(1500), c.TotalAllocated())

	// Equal total is a no-op.
	require.NoError(t, c.IncreaseAllocation(1500))
}

func TestUpdateDates(t *testing.T) {
	c := newTestCampaign(t)

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)
	require.NoError(t, c.UpdateDates(start, end))
	assert.Equal(t, start, c.StartDate())
	assert.Equal(t, end, c.EndDate())

	assert.Error(t, c.UpdateDates(end, start))
}

func TestIsActive_OutsideWindow(t *testing.T) {
	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(time.Hour)
	c, err := NewCampaign("cmp_future00001", 1, 100, start, end, 0)
	require.NoError(t, err)

	// Active status, but the window has not opened yet.
	assert.Equal(t, StatusActive, c.Status())
	assert.False(t, c.IsActive())
	assert.False(t, c.IsPastEndDate())
}

func TestIsPastEndDate(t *testing.T) {
	start := time.Now().UTC().Add(-48 * time.Hour)
	end := start.Add(24 * time.Hour)
	c, err := NewCampaign("cmp_past0000001", 1, 100, start, end, 0)
	require.NoError(t, err)

	assert.True(t, c.IsPastEndDate())
	assert.False(t, c.IsActive())
}

func TestReconstructCampaign(t *testing.T) {
	now := time.Now().UTC()
	c, err := ReconstructCampaign(7, "cmp_recon000001", 3, 500, 25, StatusInactive, now.Add(-time.Hour), now.Add(time.Hour), 4, now, now)
	require.NoError(t, err)

	assert.Equal(t, uint(7), c.ID())
	assert.Equal(t, StatusInactive, c.Status())
	assert.Equal(t, 4, c.Version())

	_, err = ReconstructCampaign(0, "cmp_x", 1, 100, 0, StatusActive, now, now.Add(time.Hour), 1, now, now)
	assert.Error(t, err)

	_, err = ReconstructCampaign(1, "cmp_x", 1, 100, 0, Status("bogus"), now, now.Add(time.Hour), 1, now, now)
	assert.Error(t, err)
}

func TestSetID(t *testing.T) {
	c := newTestCampaign(t)

	assert.Error(t, c.SetID(2))
	assert.Equal(t, uint(1), c.ID())
}
