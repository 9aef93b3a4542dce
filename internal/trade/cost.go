package trade

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type CostSign string

const (
	CostSignRaw           CostSign = "raw"
	CostSignDebitNegative CostSign = "debit_negative"
)

// CostPolicy decides how Total Cost is derived from a fill.
type CostPolicy struct {
	ApplyMultiplier bool
	Sign            CostSign
	RegFees         decimal.Decimal
}

func ParseCostSign(value string) (CostSign, error) {
	switch CostSign(strings.ToLower(strings.TrimSpace(value))) {
	case "", CostSignRaw:
		return CostSignRaw, nil
	case CostSignDebitNegative:
		return CostSignDebitNegative, nil
	default:
		return "", fmt.Errorf("Некорректный режим знака стоимости: %s", value)
	}
}

// TotalCost is quantity * price * multiplier + commission + fees, signed according to the policy.
func (p CostPolicy) TotalCost(action string, qty int64, price, commission decimal.Decimal, multiplier string) decimal.Decimal {
	gross := price.Mul(decimal.NewFromInt(qty))
	if p.ApplyMultiplier {
		gross = gross.Mul(ParseMultiplier(multiplier))
	}

	if p.Sign != CostSignDebitNegative {
		return gross.Add(commission).Add(p.RegFees)
	}
	if action == ActionBuyToOpen {
		return gross.Add(commission).Add(p.RegFees).Neg()
	}
	return gross.Sub(commission).Sub(p.RegFees)
}

// ParseMultiplier falls back to 1 when the contract carries no usable multiplier.
func ParseMultiplier(value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.NewFromInt(1)
	}
	m, err := strconv.ParseFloat(value, 64)
	if err != nil || m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(m)
}

func Quantity(shares float64) int64 {
	return int64(math.Abs(shares))
}

func PriceMagnitude(price float64) decimal.Decimal {
	return decimal.NewFromFloat(math.Abs(price))
}
