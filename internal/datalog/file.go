package datalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/laserlog/internal/errors"
)

const fileMode = 0o644

// DefaultFileName is the log file name used when none is configured.
func DefaultFileName(model, serial string, at time.Time) string {
	return fmt.Sprintf("LaserStateLog_(%s)_(Serial#%s)_(%s).log",
		model, serial, at.Format("2006-01-02_15-04-05"))
}

// writeRows encodes rows as CSV into the file at path opened with flag.
func writeRows(path string, flag int, rows ...[]string) error {
	errFactory := errors.New()

	f, err := os.OpenFile(path, flag|os.O_WRONLY, fileMode)
	if err != nil {
		return errFactory.Wrap(ErrFileOpen, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return errFactory.Wrap(ErrFileWrite, err)
	}

	if err := f.Close(); err != nil {
		return errFactory.Wrap(ErrFileWrite, err)
	}

	return nil
}

func appendRows(path string, rows ...[]string) error {
	return writeRows(path, os.O_CREATE|os.O_APPEND, rows...)
}

func replaceRows(path string, rows ...[]string) error {
	return writeRows(path, os.O_CREATE|os.O_TRUNC, rows...)
}

// probeAppend checks path can be opened for appending and reports whether
// it is empty.
func probeAppend(path string) (empty bool, err error) {
	errFactory := errors.New()

	if strings.TrimSpace(path) == "" {
		return false, errFactory.New(ErrNoFilePath)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
	if err != nil {
		return false, errFactory.Wrap(ErrFileOpen, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, errFactory.Wrap(ErrFileOpen, err)
	}

	return info.Size() == 0, nil
}
