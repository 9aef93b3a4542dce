package engine

import "tradelog/internal/metrics"

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StatePolling    State = "polling"
	StateDone       State = "done"
)

const (
	stageConnect  = "connect"
	stageSnapshot = "snapshot"
	stageClassify = "classify"
	stageWrite    = "write"
)

func (e *Engine) setState(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Status is the health snapshot served next to the metrics.
func (e *Engine) Status() metrics.Status {
	return metrics.Status{
		State:     string(e.State()),
		Connected: e.session.Connected(),
		Rows:      e.ledger.Len(),
		Pending:   e.reconciler.Pending(),
	}
}
