package trade

import (
	"errors"
	"math"
	"testing"
	"time"
	"tradelog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionFill(execID string, side models.Side, commission *float64) models.Fill {
	f := models.Fill{
		Contract: models.Contract{
			SecType:     models.SecTypeOption,
			Symbol:      "SPX",
			LocalSymbol: "SPX   130921P01660000",
			Expiry:      "Sep13",
			Strike:      1660,
			Right:       models.RightPut,
			Multiplier:  "100",
		},
		Execution: models.Execution{
			ExecID:     execID,
			OrderID:    222222222,
			PermID:     111111111,
			Side:       side,
			Shares:     2,
			Price:      -3.15,
			ExecutedAt: time.Date(2013, 9, 12, 22, 31, 15, 0, time.UTC),
		},
	}
	if commission != nil {
		f.Commission = &models.CommissionReport{ExecID: execID, Commission: *commission}
	}
	return f
}

func ptr(v float64) *float64 { return &v }

func TestReconciler_Enrich(t *testing.T) {
	r := NewReconciler(CostPolicy{Sign: CostSignRaw})

	res, err := r.Reconcile(models.Snapshot{Fills: []models.Fill{optionFill("e1", models.SideBought, ptr(2.27))}})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, "SPX^^^130921P01660000", tr.Symbol)
	assert.Equal(t, "SPX Sep13 1660 Put", tr.Description)
	assert.Equal(t, "Buy To Open", tr.Action)
	assert.Equal(t, int64(2), tr.Quantity)
	assert.Equal(t, "3.15", tr.Price.String())
	assert.Equal(t, "2.27", tr.Commission.String())
	assert.Equal(t, "8.57", tr.TotalCost.String())
	assert.Equal(t, int64(111111111), tr.PermID)
	assert.Equal(t, 1, res.Seen)
	assert.Equal(t, 0, res.Pending)
}

func TestReconciler_SkipsNonOptions(t *testing.T) {
	r := NewReconciler(CostPolicy{})
	stock := optionFill("s1", "WEIRD", nil)
	stock.Contract.SecType = "STK"

	res, err := r.Reconcile(models.Snapshot{Fills: []models.Fill{stock}})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 0, res.Seen)
	assert.Equal(t, 0, res.Pending)
}

func TestReconciler_CommissionGating(t *testing.T) {
	r := NewReconciler(CostPolicy{})

	t.Run("missing commission is skipped and reported once", func(t *testing.T) {
		snap := models.Snapshot{Fills: []models.Fill{optionFill("e1", models.SideSold, nil)}}

		res, err := r.Reconcile(snap)
		require.NoError(t, err)
		assert.Empty(t, res.Trades)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, "Sell To Open", res.Skipped[0].Action)
		assert.Equal(t, 1, res.Pending)

		res, err = r.Reconcile(snap)
		require.NoError(t, err)
		assert.Empty(t, res.Trades)
		assert.Empty(t, res.Skipped)
	})

	t.Run("unset commission counts as missing", func(t *testing.T) {
		res, err := r.Reconcile(models.Snapshot{Fills: []models.Fill{optionFill("e1", models.SideSold, ptr(math.MaxFloat64))}})
		require.NoError(t, err)
		assert.Empty(t, res.Trades)
	})

	t.Run("late commission after fill left the snapshot", func(t *testing.T) {
		res, err := r.Reconcile(models.Snapshot{
			Commissions: []models.CommissionReport{{ExecID: "e1", Commission: 1.05}},
		})
		require.NoError(t, err)
		require.Len(t, res.Trades, 1)
		assert.Equal(t, "e1", res.Trades[0].ExecID)
		assert.Equal(t, "1.05", res.Trades[0].Commission.String())
		assert.Equal(t, 0, res.Pending)

		res, err = r.Reconcile(models.Snapshot{})
		require.NoError(t, err)
		assert.Empty(t, res.Trades)
	})
}

func TestReconciler_CommissionBeforeFill(t *testing.T) {
	r := NewReconciler(CostPolicy{})

	_, err := r.Reconcile(models.Snapshot{Commissions: []models.CommissionReport{{ExecID: "e9", Commission: 0.65}}})
	require.NoError(t, err)

	res, err := r.Reconcile(models.Snapshot{Fills: []models.Fill{optionFill("e9", models.SideBought, nil)}})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "0.65", res.Trades[0].Commission.String())
}

func TestReconciler_ClassificationIsFatal(t *testing.T) {
	r := NewReconciler(CostPolicy{})

	bad := optionFill("e2", "SHORT", ptr(1))
	res, err := r.Reconcile(models.Snapshot{Fills: []models.Fill{
		optionFill("e1", models.SideBought, ptr(1)),
		bad,
	}})
	assert.True(t, errors.Is(err, ErrUnknownSide))
	assert.Empty(t, res.Trades)

	badRight := optionFill("e3", models.SideBought, ptr(1))
	badRight.Contract.Right = "X"
	_, err = r.Reconcile(models.Snapshot{Fills: []models.Fill{badRight}})
	assert.True(t, errors.Is(err, ErrUnknownRight))
	assert.Equal(t, 0, r.Pending())
}
