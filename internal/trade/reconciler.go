package trade

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
	"tradelog/internal/models"

	"github.com/shopspring/decimal"
)

// unsetCommission is what TWS reports before the real commission is known.
const unsetCommission = math.MaxFloat64

type Trade struct {
	ExecID      string
	Symbol      string
	Description string
	Action      string
	Quantity    int64
	Price       decimal.Decimal
	Commission  decimal.Decimal
	RegFees     decimal.Decimal
	TotalCost   decimal.Decimal
	ExecutedAt  time.Time
	OrderID     int64
	PermID      int64
}

type Result struct {
	Trades []Trade
	// Skipped holds fills reported without commission for the first time.
	Skipped []Trade
	Seen    int
	Pending int
}

// Reconciler joins option fills with their commission reports. Commissions
// and commission-less fills are remembered across snapshots, so a report
// that arrives after its fill left the snapshot still produces a trade.
// It is safe for concurrent use.
type Reconciler struct {
	mu          sync.Mutex
	cost        CostPolicy
	commissions map[string]decimal.Decimal
	pending     map[string]models.Fill
	warned      map[string]bool
}

type classified struct {
	fill   models.Fill
	action string
	desc   string
	symbol string
}

func NewReconciler(cost CostPolicy) *Reconciler {
	return &Reconciler{
		cost:        cost,
		commissions: map[string]decimal.Decimal{},
		pending:     map[string]models.Fill{},
		warned:      map[string]bool{},
	}
}

func (r *Reconciler) Reconcile(snap models.Snapshot) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates, seen := r.candidates(snap.Fills)

	prepared := make([]classified, 0, len(candidates))
	for _, fill := range candidates {
		c, err := classify(fill)
		if err != nil {
			return Result{}, fmt.Errorf("execId=%s: %w", fill.Execution.ExecID, err)
		}
		prepared = append(prepared, c)
	}

	for _, report := range snap.Commissions {
		r.recordCommission(report)
	}
	for _, fill := range snap.Fills {
		if fill.Commission != nil {
			r.recordCommission(*fill.Commission)
		}
	}

	result := Result{Seen: seen}
	for _, c := range prepared {
		execID := c.fill.Execution.ExecID
		commission, ok := r.commissions[execID]
		if !ok {
			r.pending[execID] = c.fill
			if !r.warned[execID] {
				r.warned[execID] = true
				result.Skipped = append(result.Skipped, r.build(c, decimal.Zero))
			}
			continue
		}
		delete(r.pending, execID)
		delete(r.warned, execID)
		result.Trades = append(result.Trades, r.build(c, commission))
	}
	result.Pending = len(r.pending)

	return result, nil
}

func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// candidates returns the option fills of the snapshot followed by pending
// fills the snapshot no longer carries.
func (r *Reconciler) candidates(fills []models.Fill) ([]models.Fill, int) {
	seen := map[string]bool{}
	var out []models.Fill
	for _, fill := range fills {
		if !fill.IsOption() {
			continue
		}
		if seen[fill.Execution.ExecID] {
			continue
		}
		seen[fill.Execution.ExecID] = true
		out = append(out, fill)
	}
	count := len(out)

	var stale []string
	for execID := range r.pending {
		if !seen[execID] {
			stale = append(stale, execID)
		}
	}
	sort.Strings(stale)
	for _, execID := range stale {
		out = append(out, r.pending[execID])
	}
	return out, count
}

func (r *Reconciler) recordCommission(report models.CommissionReport) {
	if report.ExecID == "" || !validCommission(report.Commission) {
		return
	}
	r.commissions[report.ExecID] = decimal.NewFromFloat(report.Commission)
}

func (r *Reconciler) build(c classified, commission decimal.Decimal) Trade {
	qty := Quantity(c.fill.Execution.Shares)
	price := PriceMagnitude(c.fill.Execution.Price)
	return Trade{
		ExecID:      c.fill.Execution.ExecID,
		Symbol:      c.symbol,
		Description: c.desc,
		Action:      c.action,
		Quantity:    qty,
		Price:       price,
		Commission:  commission,
		RegFees:     r.cost.RegFees,
		TotalCost:   r.cost.TotalCost(c.action, qty, price, commission, c.fill.Contract.Multiplier),
		ExecutedAt:  c.fill.Execution.ExecutedAt,
		OrderID:     c.fill.Execution.OrderID,
		PermID:      c.fill.Execution.PermID,
	}
}

func classify(fill models.Fill) (classified, error) {
	action, err := Action(fill.Execution.Side)
	if err != nil {
		return classified{}, err
	}
	desc, err := Describe(fill.Contract.Symbol, fill.Contract.Expiry, fill.Contract.Strike, fill.Contract.Right)
	if err != nil {
		return classified{}, err
	}
	return classified{
		fill:   fill,
		action: action,
		desc:   desc,
		symbol: NormalizeSymbol(fill.Contract.LocalSymbol),
	}, nil
}

func validCommission(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v < unsetCommission
}
