package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervalDuration(t *testing.T) {
	d, err := ParseIntervalDuration("1h")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = ParseIntervalDuration("15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	d, err = ParseIntervalDuration("1d")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	_, err = ParseIntervalDuration("x")
	assert.Error(t, err)

	_, err = ParseIntervalDuration("10y")
	assert.Error(t, err)
}

func TestStringToFloat(t *testing.T) {
	f, err := StringToFloat("65000.12")
	require.NoError(t, err)
	assert.InDelta(t, 65000.12, f, 1e-9)

	_, err = StringToFloat("abc")
	assert.Error(t, err)
}
