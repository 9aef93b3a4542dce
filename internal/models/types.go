package models

import "time"

type SecType string
type Side string
type Right string

const (
	SecTypeOption SecType = "OPT"

	SideBought Side = "BOT"
	SideSold   Side = "SLD"

	RightCall Right = "C"
	RightPut  Right = "P"
)

type Contract struct {
	SecType     SecType `json:"secType"`
	Symbol      string  `json:"symbol"`
	LocalSymbol string  `json:"localSymbol"`
	Expiry      string  `json:"lastTradeDateOrContractMonth"`
	Strike      float64 `json:"strike"`
	Right       Right   `json:"right"`
	Multiplier  string  `json:"multiplier"`
}

type Execution struct {
	ExecID     string    `json:"execId"`
	OrderID    int64     `json:"orderId"`
	PermID     int64     `json:"permId"`
	Side       Side      `json:"side"`
	Shares     float64   `json:"shares"`
	Price      float64   `json:"price"`
	Time       string    `json:"time"`
	ExecutedAt time.Time `json:"-"`
}

type CommissionReport struct {
	ExecID     string  `json:"execId"`
	Commission float64 `json:"commission"`
}

type Fill struct {
	Contract   Contract          `json:"contract"`
	Execution  Execution         `json:"execution"`
	Commission *CommissionReport `json:"commissionReport,omitempty"`
}

// Snapshot is a point-in-time view of everything the gateway currently knows.
// Commissions may reference fills that are no longer part of Fills.
type Snapshot struct {
	Fills       []Fill
	Commissions []CommissionReport
}

func (f Fill) IsOption() bool {
	return f.Contract.SecType == SecTypeOption
}
