package trade

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"tradelog/internal/models"
)

const (
	ActionBuyToOpen  = "Buy To Open"
	ActionSellToOpen = "Sell To Open"
)

var (
	ErrClassification = errors.New("классификация сделки")
	ErrUnknownSide    = fmt.Errorf("%w: неизвестное направление", ErrClassification)
	ErrUnknownRight   = fmt.Errorf("%w: неизвестный тип опциона", ErrClassification)
)

func Action(side models.Side) (string, error) {
	switch models.Side(strings.ToUpper(strings.TrimSpace(string(side)))) {
	case models.SideBought:
		return ActionBuyToOpen, nil
	case models.SideSold:
		return ActionSellToOpen, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownSide, side)
	}
}

func Describe(symbol, expiry string, strike float64, right models.Right) (string, error) {
	var kind string
	switch strings.ToUpper(strings.TrimSpace(string(right))) {
	case string(models.RightCall), "CALL":
		kind = "Call"
	case string(models.RightPut), "PUT":
		kind = "Put"
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownRight, right)
	}
	// Collapsed so empty or padded parts never leave leading or doubled spaces.
	desc := fmt.Sprintf("%s %s %s %s", symbol, expiry, formatStrike(strike), kind)
	return strings.Join(strings.Fields(desc), " "), nil
}

func formatStrike(strike float64) string {
	return strconv.FormatFloat(strike, 'f', -1, 64)
}
