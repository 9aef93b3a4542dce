package trade

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostPolicy_TotalCost(t *testing.T) {
	price := decimal.RequireFromString("3.15")
	commission := decimal.RequireFromString("2.27")

	t.Run("raw without multiplier", func(t *testing.T) {
		p := CostPolicy{Sign: CostSignRaw}
		got := p.TotalCost(ActionBuyToOpen, 2, price, commission, "100")
		assert.Equal(t, "8.57", got.String())
	})

	t.Run("raw with multiplier", func(t *testing.T) {
		p := CostPolicy{ApplyMultiplier: true, Sign: CostSignRaw}
		got := p.TotalCost(ActionSellToOpen, 2, price, commission, "100")
		assert.Equal(t, "632.27", got.String())
	})

	t.Run("debit negative buy", func(t *testing.T) {
		p := CostPolicy{ApplyMultiplier: true, Sign: CostSignDebitNegative, RegFees: decimal.RequireFromString("0.06")}
		got := p.TotalCost(ActionBuyToOpen, 2, price, commission, "100")
		assert.Equal(t, "-632.33", got.String())
	})

	t.Run("debit negative sell", func(t *testing.T) {
		p := CostPolicy{ApplyMultiplier: true, Sign: CostSignDebitNegative, RegFees: decimal.RequireFromString("0.06")}
		got := p.TotalCost(ActionSellToOpen, 2, price, commission, "100")
		assert.Equal(t, "627.67", got.String())
	})
}

func TestParseMultiplier(t *testing.T) {
	assert.Equal(t, "100", ParseMultiplier("100").String())
	assert.Equal(t, "1", ParseMultiplier("").String())
	assert.Equal(t, "1", ParseMultiplier("abc").String())
	assert.Equal(t, "1", ParseMultiplier("-5").String())
}

func TestParseCostSign(t *testing.T) {
	sign, err := ParseCostSign("")
	require.NoError(t, err)
	assert.Equal(t, CostSignRaw, sign)

	sign, err = ParseCostSign("Debit_Negative")
	require.NoError(t, err)
	assert.Equal(t, CostSignDebitNegative, sign)

	_, err = ParseCostSign("inverted")
	assert.Error(t, err)
}

func TestQuantityAndPrice(t *testing.T) {
	assert.Equal(t, int64(3), Quantity(-3))
	assert.Equal(t, "3.15", PriceMagnitude(-3.15).String())
}
