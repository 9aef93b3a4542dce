package engine

import (
	"github.com/sirupsen/logrus"
)

func (e *Engine) logEntry() *logrus.Entry {
	entry := e.log.WithComponent("engine")
	if e.cfg != nil && e.cfg.Runtime.Daemon {
		entry = entry.WithField("mode", "daemon")
	}
	return entry
}
