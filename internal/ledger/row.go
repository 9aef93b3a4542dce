package ledger

import (
	"strings"
	"time"
	"tradelog/internal/trade"

	"github.com/shopspring/decimal"
)

const (
	Header          = "Symbol, Description, Action, Quantity, Price, Commission, Reg Fees, Date, TransactionID, Order Number, Transaction Type ID, Total Cost"
	TransactionType = 34

	dateLayout = "01/02/2006 03:04:05 PM"
)

// Amount renders decimals the way the trade log always did: 2.27, 0.0, -632.33.
type Amount struct {
	decimal.Decimal
}

func (a Amount) MarshalCSV() (string, error) {
	s := a.Decimal.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

type Row struct {
	key             Key
	Symbol          string `csv:"Symbol"`
	Description     string `csv:"Description"`
	Action          string `csv:"Action"`
	Quantity        int64  `csv:"Quantity"`
	Price           Amount `csv:"Price"`
	Commission      Amount `csv:"Commission"`
	RegFees         Amount `csv:"Reg Fees"`
	Date            string `csv:"Date"`
	TransactionID   int64  `csv:"TransactionID"`
	OrderNumber     int64  `csv:"Order Number"`
	TransactionType int    `csv:"Transaction Type ID"`
	TotalCost       Amount `csv:"Total Cost"`
}

// NewRow formats a trade for the ledger. The execution time is shown in loc;
// a nil loc keeps the zone the time already carries.
func NewRow(t trade.Trade, loc *time.Location) Row {
	when := t.ExecutedAt
	if loc != nil {
		when = when.In(loc)
	}
	return Row{
		key:             NewKey(when, t.OrderID, t.ExecID),
		Symbol:          t.Symbol,
		Description:     t.Description,
		Action:          t.Action,
		Quantity:        t.Quantity,
		Price:           Amount{t.Price},
		Commission:      Amount{t.Commission},
		RegFees:         Amount{t.RegFees},
		Date:            when.Format(dateLayout),
		TransactionID:   t.PermID,
		OrderNumber:     t.OrderID,
		TransactionType: TransactionType,
		TotalCost:       Amount{t.TotalCost},
	}
}

func (r Row) Key() Key {
	return r.key
}

func NewRows(trades []trade.Trade, loc *time.Location) []Row {
	rows := make([]Row, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, NewRow(t, loc))
	}
	return rows
}
