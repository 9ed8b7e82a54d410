package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
)

// PriorityFor maps an slog level onto a host log priority.
func PriorityFor(level slog.Level) entities.Priority {
	switch {
	case level < slog.LevelDebug:
		return entities.PriorityVerbose
	case level < slog.LevelInfo:
		return entities.PriorityDebug
	case level < slog.LevelWarn:
		return entities.PriorityInfo
	case level < slog.LevelError:
		return entities.PriorityWarn
	default:
		return entities.PriorityError
	}
}

// appendAttr writes " key=value" for a, flattening groups into dotted keys.
func appendAttr(sb *strings.Builder, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			if a.Key != "" {
				ga.Key = a.Key + "." + ga.Key
			}
			appendAttr(sb, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	sb.WriteString(quoteIfNeeded(attrText(a.Value)))
}

// attrText converts a resolved slog value to its text form.
func attrText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		a := v.Any()
		if a == nil {
			return "<nil>"
		}
		if err, isErr := a.(error); isErr {
			return err.Error()
		}
		if s, isStringer := a.(fmt.Stringer); isStringer {
			return s.String()
		}
		if data, err := json.Marshal(a); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", a)
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
