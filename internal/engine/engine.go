package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"tradelog/internal/broker"
	"tradelog/internal/config"
	"tradelog/internal/ledger"
	"tradelog/internal/logger"
	"tradelog/internal/metrics"
	"tradelog/internal/trade"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const confirmLayout = "2006-01-02 15:04:05"

type Engine struct {
	cfg        *config.Config
	session    broker.Session
	ledger     *ledger.Ledger
	reconciler *trade.Reconciler
	log        *logger.Logger

	out       io.Writer
	now       func() time.Time
	retryBase time.Duration

	// invalid is touched only by the poll loop.
	invalid map[string]bool

	mu          sync.Mutex
	state       State
	connectedAt time.Time
}

func New(cfg *config.Config, session broker.Session, book *ledger.Ledger, log *logger.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		session: session,
		ledger:  book,
		reconciler: trade.NewReconciler(trade.CostPolicy{
			ApplyMultiplier: cfg.Cost.ApplyMultiplier,
			Sign:            cfg.Cost.Sign,
			RegFees:         cfg.Cost.RegFees,
		}),
		log:       log,
		out:       os.Stdout,
		now:       time.Now,
		retryBase: time.Second,
		invalid:   map[string]bool{},
		state:     StateIdle,
	}
}

// SetOutput redirects the daemon's console confirmations.
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

// Start runs one cycle, or cycles until ctx is cancelled in daemon mode.
// Only classification errors stop a daemon.
func (e *Engine) Start(ctx context.Context) error {
	daemon := e.cfg.Runtime.Daemon
	defer e.disconnect()

	if err := e.connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if !daemon {
			return err
		}
		metrics.CycleErrors.WithLabelValues(stageConnect).Inc()
		e.logEntry().WithError(err).Error("Шлюз недоступен, повторим в следующем цикле.")
	}

	if daemon {
		fmt.Fprintln(e.out, "Entering daemon mode...")
	}

	for {
		if err := e.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !daemon || errors.Is(err, trade.ErrClassification) {
				return err
			}
			e.logEntry().WithError(err).Error("Цикл опроса завершился с ошибкой.")
		}

		if !daemon {
			e.setState(StateDone)
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.cfg.Runtime.PollInterval):
		}
	}
}

func (e *Engine) cycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	entry := e.logEntry().WithField("request_id", uuid.NewString())

	if err := e.ensureSession(ctx); err != nil {
		metrics.CycleErrors.WithLabelValues(stageConnect).Inc()
		return err
	}

	snapCtx, cancel := context.WithTimeout(ctx, e.cfg.Gateway.SnapshotTimeout)
	snap, err := e.session.SnapshotFills(snapCtx)
	cancel()
	if err != nil {
		metrics.CycleErrors.WithLabelValues(stageSnapshot).Inc()
		return fmt.Errorf("Не удалось получить снимок исполнений: %w", err)
	}
	e.reportInvalid(entry, broker.ResolveTimes(&snap, e.cfg.Time.SourceZone))

	result, err := e.reconciler.Reconcile(snap)
	if err != nil {
		metrics.CycleErrors.WithLabelValues(stageClassify).Inc()
		entry.WithError(err).Error("Неизвестная сделка, работа остановлена.")
		return err
	}

	metrics.FillsSeen.Add(float64(result.Seen))
	metrics.FillsSkipped.Add(float64(len(result.Skipped)))
	metrics.PendingFills.Set(float64(result.Pending))
	e.reportSkipped(entry, result.Skipped)

	changed, err := e.ledger.Merge(ledger.NewRows(result.Trades, e.cfg.DisplayZone()))
	metrics.LedgerRows.Set(float64(e.ledger.Len()))
	if err != nil {
		metrics.CycleErrors.WithLabelValues(stageWrite).Inc()
		return fmt.Errorf("Не удалось записать журнал сделок: %w", err)
	}

	entry.WithFields(map[string]interface{}{
		"fills":   result.Seen,
		"trades":  len(result.Trades),
		"pending": result.Pending,
		"rows":    e.ledger.Len(),
		"changed": changed,
	}).Debug("Цикл опроса завершён.")

	if changed {
		metrics.LedgerWrites.Inc()
		entry.WithField("file", e.cfg.Ledger.OutputFile).Info("Журнал сделок обновлён.")
		if e.cfg.Runtime.Daemon {
			fmt.Fprintf(e.out, "%s Trade log updated: %d trades in %s\n",
				e.now().Format(confirmLayout), e.ledger.Len(), e.cfg.Ledger.OutputFile)
		}
	}

	return nil
}

// reportSkipped warns about fills whose commission is still unknown. Each
// fill is reported once; the reconciler retries it on later cycles.
func (e *Engine) reportSkipped(entry *logrus.Entry, skipped []trade.Trade) {
	for _, t := range skipped {
		fields := entry.WithFields(logrus.Fields{
			"exec_id":     t.ExecID,
			"symbol":      t.Symbol,
			"description": t.Description,
			"action":      t.Action,
			"quantity":    t.Quantity,
			"price":       t.Price.String(),
		})
		if e.cfg.Runtime.Daemon {
			fields.Info("Нет комиссии по сделке, пропущена до следующего опроса.")
			continue
		}
		fields.Warn("Нет комиссии по сделке, пропущена до следующего опроса.")
	}
}

// reportInvalid warns once per fill the gateway keeps sending with an
// unreadable execution time.
func (e *Engine) reportInvalid(entry *logrus.Entry, invalid []broker.InvalidFill) {
	for _, fill := range invalid {
		if e.invalid[fill.ExecID] {
			continue
		}
		e.invalid[fill.ExecID] = true
		metrics.FillsSkipped.Inc()
		entry.WithField("exec_id", fill.ExecID).WithError(fill.Err).Warn("Некорректное время исполнения, сделка пропущена.")
	}
}
