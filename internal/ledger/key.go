package ledger

import (
	"fmt"
	"time"
)

const keyTimeLayout = "2006.01.02 15:04:05"

// Key identifies a ledger row. Rows are ordered by time, then order id,
// then execution id.
type Key struct {
	When    string
	OrderID int64
	ExecID  string
}

func NewKey(ts time.Time, orderID int64, execID string) Key {
	return Key{
		When:    ts.Format(keyTimeLayout),
		OrderID: orderID,
		ExecID:  execID,
	}
}

// String renders the composite key. For order ids up to 8 digits the string
// order matches Less.
func (k Key) String() string {
	return fmt.Sprintf("%s%08d%s", k.When, k.OrderID, k.ExecID)
}

func (k Key) Less(other Key) bool {
	if k.When != other.When {
		return k.When < other.When
	}
	if k.OrderID != other.OrderID {
		return k.OrderID < other.OrderID
	}
	return k.ExecID < other.ExecID
}
