package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Save detected pitch estimates to a CSV log file, with
 *		optional automatic daily file rotation.
 *
 * Description:	Rather than a raw binary dump, write one CSV row per
 *		estimate for easy spreadsheet import and offline analysis.
 *		There are two alternatives, same as the teacher's log.go:
 *
 *		  file      - a single fixed path, reopened for append.
 *		  directory - daily file names generated within it.
 *
 *		Use one or the other, never both.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"
)

// dailyNamePattern matches the teacher's "%F.log" daily log naming,
// via strftime rather than Go's reference-time layout so the pattern
// reads the same as the rest of this codebase's cmd-line docs.
const dailyNamePattern = "%Y-%m-%d.log"

// PitchLog appends one CSV row per pitch estimate to a log file. It is
// not safe for concurrent use from multiple goroutines; callers own a
// PitchLog per capture session.
type PitchLog struct {
	dailyNames bool
	path       string
	fp         *os.File
	openName   string
}

// NewPitchLog mirrors the teacher's log_init: when dailyNames is true,
// path names a directory under which "YYYY-MM-DD.log" files are
// created as needed; otherwise path names one fixed file, opened for
// append and never rotated (a caller wanting rotation here would run
// this under logrotate, same as the teacher's single-file mode).
func NewPitchLog(dailyNames bool, path string) (*PitchLog, error) {
	if path == "" {
		return &PitchLog{}, nil
	}

	l := &PitchLog{dailyNames: dailyNames}

	if dailyNames {
		stat, statErr := os.Stat(path)
		switch {
		case statErr == nil && stat.IsDir():
			l.path = path
		case statErr == nil:
			return nil, fmt.Errorf("pitchtune: pitch log: %q is not a directory", path)
		default:
			if mkErr := os.Mkdir(path, 0o755); mkErr != nil {
				return nil, fmt.Errorf("pitchtune: pitch log: create %q: %w", path, mkErr)
			}
			l.path = path
		}
	} else {
		l.path = path
	}
	return l, nil
}

const pitchLogHeader = "utime,isotime,algorithm,hz,clarity\n"

// Write appends one row. No-op if the log has no destination
// configured (NewPitchLog called with an empty path).
func (l *PitchLog) Write(alg Algorithm, hz, clarity float32) error {
	if l.path == "" {
		return nil
	}
	now := time.Now().UTC()

	if l.dailyNames {
		fname, err := strftime.Format(dailyNamePattern, now)
		if err != nil {
			return fmt.Errorf("pitchtune: pitch log: %w", err)
		}
		if l.fp != nil && fname != l.openName {
			l.Close()
		}
		if l.fp == nil {
			fullPath := filepath.Join(l.path, fname)
			if err := l.open(fullPath); err != nil {
				return err
			}
			l.openName = fname
		}
	} else if l.fp == nil {
		if err := l.open(l.path); err != nil {
			return err
		}
	}

	w := csv.NewWriter(l.fp)
	err := w.Write([]string{
		strconv.FormatInt(now.Unix(), 10),
		now.Format("2006-01-02T15:04:05Z"),
		string(alg),
		strconv.FormatFloat(float64(hz), 'f', 3, 32),
		strconv.FormatFloat(float64(clarity), 'f', 4, 32),
	})
	if err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (l *PitchLog) open(fullPath string) error {
	_, statErr := os.Stat(fullPath)
	alreadyThere := statErr == nil

	f, err := os.OpenFile(fullPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("pitchtune: pitch log: open %q: %w", fullPath, err)
	}
	l.fp = f
	if !alreadyThere {
		fmt.Fprint(l.fp, pitchLogHeader)
	}
	return nil
}

// Close flushes and closes any open log file. Safe to call on an
// unconfigured PitchLog, and safe to call more than once.
func (l *PitchLog) Close() error {
	if l.fp == nil {
		return nil
	}
	err := l.fp.Close()
	l.fp = nil
	l.openName = ""
	return err
}
