package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorToLatLon(t *testing.T) {
	// FN42 center: 42.5N, 71W.
	lat, lon, err := LocatorToLatLon("FN42")
	require.NoError(t, err)
	assert.InDelta(t, 42.5, lat, 0.01)
	assert.InDelta(t, -71.0, lon, 0.01)

	// 6-character locators resolve to the subsquare center.
	lat, lon, err = LocatorToLatLon("JO65ha")
	require.NoError(t, err)
	assert.InDelta(t, 55.02, lat, 0.03)
	assert.InDelta(t, 12.6, lon, 0.05)
}

func TestLocatorToLatLonInvalid(t *testing.T) {
	for _, loc := range []string{"", "FN4", "FN42A", "ZZ42", "FNXX", "FN42YZ"} {
		_, _, err := LocatorToLatLon(loc)
		assert.Error(t, err, "locator %q", loc)
	}
}

func TestDistanceFromLocators(t *testing.T) {
	// Boston area to Copenhagen area, roughly 5900 km heading northeast.
	dist, bearing, err := DistanceFromLocators("FN42", "JO65")
	require.NoError(t, err)
	assert.InDelta(t, 5900, dist, 200)
	assert.Greater(t, bearing, 30.0)
	assert.Less(t, bearing, 70.0)

	// Same square is zero distance.
	dist, _, err = DistanceFromLocators("FN42", "FN42")
	require.NoError(t, err)
	assert.InDelta(t, 0, dist, 0.001)
}

func TestLooksLikeLocator(t *testing.T) {
	assert.True(t, looksLikeLocator("FN42"))
	assert.True(t, looksLikeLocator("JO65"))
	assert.False(t, looksLikeLocator("RR73"))
	assert.False(t, looksLikeLocator("-08"))
	assert.False(t, looksLikeLocator("73"))
	assert.False(t, looksLikeLocator("R FN42"))
}
