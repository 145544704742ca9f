package logstream

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"
)

// Event is one fully rendered log record. Once constructed it is immutable
// and self-contained: the message is formatted and every field is
// stringified at the producer, so the event needs no further context from
// the producing process and can cross a process boundary as-is.
type Event struct {
	ID      string            `json:"id"`
	Level   string            `json:"level"`
	Logger  string            `json:"logger,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Time    time.Time         `json:"time"`
}

// NewEvent renders a zap entry and its fields into a transportable Event.
func NewEvent(entry zapcore.Entry, fields []zapcore.Field) Event {
	ev := Event{
		ID:      uuid.New().String(),
		Level:   entry.Level.String(),
		Logger:  entry.LoggerName,
		Message: entry.Message,
		Time:    entry.Time,
	}
	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}
		ev.Fields = make(map[string]string, len(enc.Fields))
		for k, v := range enc.Fields {
			ev.Fields[k] = fmt.Sprint(v)
		}
	}
	return ev
}
