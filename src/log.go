package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Structured logging for the tuner pipeline.
 *
 * Description:	The teacher has its own colored-text-by-severity
 *		scheme (textcolor.go's dw_color_e / text_color_set), a
 *		stub left half-implemented for its terminal target. This
 *		package needs the same five-level severity split — info,
 *		error, decoded-event, transmitted-event, debug — but
 *		actually wants it wired up, so it replaces the stub with
 *		github.com/charmbracelet/log, which gives the same
 *		colored/leveled console output plus structured key-value
 *		fields for free.
 *
 *------------------------------------------------------------------*/

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the package-wide structured logger. Callers may replace it
// (SetLogger) to redirect output or change verbosity; the zero value
// is never used directly.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetLogger replaces the package-wide logger, e.g. to point it at a
// file or raise the level for a --debug flag.
func SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	Logger = l
}

// SetDebug toggles debug-level logging, same severity granularity as
// the teacher's DW_COLOR_DEBUG channel.
func SetDebug(enabled bool) {
	if enabled {
		Logger.SetLevel(log.DebugLevel)
	} else {
		Logger.SetLevel(log.InfoLevel)
	}
}
