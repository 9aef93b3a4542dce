package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"tradelog/internal/models"
)

// Gateway message codes the sessions care about.
const (
	CodeNotConnected     = 504
	CodeMarketDataFarmOK = 2104
	CodeHistDataFarmOK   = 2106
)

var ErrNotConnected = errors.New("Нет соединения со шлюзом.")

// GatewayError is an error message reported by the gateway itself.
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("Ошибка шлюза: %s (code=%d)", e.Message, e.Code)
}

// Disconnected reports whether err means the gateway lost its upstream session.
func Disconnected(err error) bool {
	if errors.Is(err, ErrNotConnected) {
		return true
	}
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Code == CodeNotConnected
}

// Session is a connection to the brokerage gateway that can report every
// fill it currently knows about.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Connected() bool
	SnapshotFills(ctx context.Context) (models.Snapshot, error)
}

// Informational reports whether a gateway error code is a status notice.
func Informational(code int) bool {
	return code == CodeMarketDataFarmOK || code == CodeHistDataFarmOK
}

var execTimeLayouts = []string{
	"20060102 15:04:05",
	"20060102-15:04:05",
}

// ParseExecTime parses an execution time as reported by the gateway:
// "YYYYMMDD HH:MM:SS", optionally followed by an IANA zone name. Times
// without a zone are read in loc.
func ParseExecTime(value string, loc *time.Location) (time.Time, error) {
	fields := strings.Fields(value)
	switch len(fields) {
	case 1:
		return parseInZone(fields[0], execTimeLayouts[1], loc)
	case 2:
		return parseInZone(fields[0]+" "+fields[1], execTimeLayouts[0], loc)
	case 3:
		zone, err := time.LoadLocation(fields[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("Неизвестный часовой пояс в %q: %w", value, err)
		}
		return parseInZone(fields[0]+" "+fields[1], execTimeLayouts[0], zone)
	default:
		return time.Time{}, fmt.Errorf("Некорректное время исполнения: %q", value)
	}
}

func parseInZone(value, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	ts, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("Некорректное время исполнения: %q: %w", value, err)
	}
	return ts, nil
}

// InvalidFill is an option fill dropped from a snapshot.
type InvalidFill struct {
	ExecID string
	Err    error
}

// ResolveTimes fills Execution.ExecutedAt for every option fill of the
// snapshot. Option fills whose time does not parse are removed from the
// snapshot and returned, so the rest of it can still be recorded.
func ResolveTimes(snap *models.Snapshot, loc *time.Location) []InvalidFill {
	var invalid []InvalidFill
	kept := make([]models.Fill, 0, len(snap.Fills))
	for _, fill := range snap.Fills {
		if !fill.IsOption() {
			kept = append(kept, fill)
			continue
		}
		ts, err := ParseExecTime(fill.Execution.Time, loc)
		if err != nil {
			invalid = append(invalid, InvalidFill{ExecID: fill.Execution.ExecID, Err: err})
			continue
		}
		fill.Execution.ExecutedAt = ts
		kept = append(kept, fill)
	}
	snap.Fills = kept
	return invalid
}
