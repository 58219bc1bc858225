package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	colorReset = "\033[0m"
	colorBlue  = "\033[34m"
)

var levelStyle = map[string]struct{ short, color string }{
	zerolog.LevelTraceValue: {"TRC", "\033[90m"},
	zerolog.LevelDebugValue: {"DBG", "\033[36m"},
	zerolog.LevelInfoValue:  {"INF", "\033[32m"},
	zerolog.LevelWarnValue:  {"WRN", "\033[33m"},
	zerolog.LevelErrorValue: {"ERR", "\033[31m"},
	zerolog.LevelFatalValue: {"FTL", "\033[35m"},
	zerolog.LevelPanicValue: {"PNC", "\033[35m"},
}

// consoleWriter renders one line per event:
//
//	15:04:05.000 [INF] source  node starting cpu:2 run_id:...
//
// The node name gets its own column so interleaved node threads stay
// readable.
func consoleWriter(cfg *Config, serviceName string, out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: "15:04:05.000",
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			FieldNode,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{FieldNode},
		FormatLevel: func(i interface{}) string {
			return serviceTag(serviceName, cfg.NoColor) + levelTag(fmt.Sprint(i), cfg.NoColor)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		},
		FormatFieldValue: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
	}
}

// serviceTag abbreviates the service to three letters, e.g. [TPC].
func serviceTag(service string, noColor bool) string {
	if service == "" || service == "default" || len(service) < 3 {
		return ""
	}
	tag := "[" + strings.ToUpper(service[:3]) + "]"
	if noColor {
		return tag
	}
	return colorBlue + tag + colorReset
}

func levelTag(lvl string, noColor bool) string {
	style, ok := levelStyle[strings.ToLower(lvl)]
	if !ok {
		return "[" + strings.ToUpper(lvl) + "]"
	}
	if noColor {
		return "[" + style.short + "]"
	}
	return style.color + "[" + style.short + "]" + colorReset
}
