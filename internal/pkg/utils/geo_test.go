package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Прага -> Брно ~ 185 км
	d := HaversineDistance(50.0755, 14.4378, 49.1951, 16.6068)
	assert.InDelta(t, 185.0, d, 5.0)

	assert.Zero(t, HaversineDistance(41.3851, 2.1734, 41.3851, 2.1734))
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(0, 0))
	assert.True(t, ValidateCoordinates(-90, 180))
	assert.False(t, ValidateCoordinates(90.1, 0))
	assert.False(t, ValidateCoordinates(0, -180.5))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.235, RoundTo(1.23456, 3))
	assert.Equal(t, 2.0, RoundTo(1.99999, 2))
}
