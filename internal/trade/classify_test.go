package trade

import (
	"errors"
	"testing"
	"tradelog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction(t *testing.T) {
	action, err := Action(models.SideBought)
	require.NoError(t, err)
	assert.Equal(t, "Buy To Open", action)

	action, err = Action(models.SideSold)
	require.NoError(t, err)
	assert.Equal(t, "Sell To Open", action)

	_, err = Action("SSHORT")
	assert.True(t, errors.Is(err, ErrUnknownSide))
	assert.True(t, errors.Is(err, ErrClassification))
}

func TestDescribe(t *testing.T) {
	t.Run("put", func(t *testing.T) {
		desc, err := Describe("SPX", "Sep13", 1660, models.RightPut)
		require.NoError(t, err)
		assert.Equal(t, "SPX Sep13 1660 Put", desc)
	})

	t.Run("call with fractional strike", func(t *testing.T) {
		desc, err := Describe("AAPL", "20240119", 192.5, "CALL")
		require.NoError(t, err)
		assert.Equal(t, "AAPL 20240119 192.5 Call", desc)
	})

	t.Run("empty symbol leaves no leading space", func(t *testing.T) {
		desc, err := Describe("", " Sep13", 1660, models.RightPut)
		require.NoError(t, err)
		assert.Equal(t, "Sep13 1660 Put", desc)
	})

	t.Run("unknown right", func(t *testing.T) {
		_, err := Describe("SPX", "Sep13", 1660, "?")
		assert.True(t, errors.Is(err, ErrUnknownRight))
		assert.False(t, errors.Is(err, ErrUnknownSide))
	})
}
