package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiers_Select(t *testing.T) {
	testCases := []struct {
		count        int
		wantCapacity int
		wantOverflow bool
	}{
		{count: 0, wantCapacity: 4},
		{count: 3, wantCapacity: 4},
		{count: 4, wantCapacity: 4},
		{count: 5, wantCapacity: 7},
		{count: 7, wantCapacity: 7},
		{count: 11, wantCapacity: 14},
		{count: 32, wantCapacity: 32},
		{count: 33, wantCapacity: 32, wantOverflow: true},
	}

	for _, tc := range testCases {
		capacity, overflow := DefaultTiers.Select(tc.count)
		assert.Equal(t, tc.wantCapacity, capacity, "count %d", tc.count)
		assert.Equal(t, tc.wantOverflow, overflow, "count %d", tc.count)
	}
}

func TestTiers_Normalize(t *testing.T) {
	assert.Equal(t, 7, DefaultTiers.Normalize(6))
	assert.Equal(t, 10, DefaultTiers.Normalize(10))
	assert.Equal(t, 32, DefaultTiers.Normalize(50))
	assert.Equal(t, 4, DefaultTiers.Normalize(-1))
}

func TestTiers_Validate(t *testing.T) {
	require.NoError(t, DefaultTiers.Validate())

	assert.ErrorIs(t, Tiers{}.Validate(), ErrInvalidTiers)
	assert.ErrorIs(t, Tiers{4, 4, 7}.Validate(), ErrInvalidTiers)
	assert.ErrorIs(t, Tiers{7, 4}.Validate(), ErrInvalidTiers)
	assert.ErrorIs(t, Tiers{0, 4}.Validate(), ErrInvalidTiers)
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{Tiers: DefaultTiers, Quorum: 0}.Validate())
}
