// Package export serializes buffer snapshots to a line-oriented text record.
//
// One line per entry:
//
//	00: deploy finished 5000 msecs FG:#ffff00 BG:#aa0000 BOLD:true @ 2026-08-23 14:02:11
//
// The index is zero-padded to the digit count of the snapshot length plus
// one. Unset colors render as "-". The record is write-only and
// human-readable; there is no versioning and no reader.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sneh-joshi/flashline/internal/types"
)

const fileExt = ".msgs"

// ErrDisabled is returned when export is requested with no destination
// directory configured.
var ErrDisabled = errors.New("export: no destination directory configured")

// ErrIO wraps any filesystem failure during an export, letting callers
// distinguish "not configured" from "configured but failed".
var ErrIO = errors.New("export: filesystem failure")

// Render produces the text record for a snapshot. Pure function: same
// snapshot, same text.
func Render(entries []*types.Entry) string {
	width := len(strconv.Itoa(len(entries))) + 1
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%0*d: %s %d msecs FG:%s BG:%s BOLD:%t @ %s\n",
			width, i, e.Text, e.TimeoutMs,
			orDash(e.Style.Foreground), orDash(e.Style.Background), e.Style.Bold,
			time.UnixMilli(e.CreatedAt).Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

// orDash substitutes "-" for an unset color so every column stays non-empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Exporter writes rendered snapshots to timestamped files in one directory.
// An empty directory disables export entirely.
type Exporter struct {
	dir string
}

// New creates an Exporter targeting dir. Pass "" to disable export.
func New(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Enabled reports whether a destination directory is configured.
func (x *Exporter) Enabled() bool { return x.dir != "" }

// Export renders the snapshot and writes it atomically (temp file, rename)
// to a timestamped .msgs file in the configured directory, creating the
// directory if needed. Returns the full path of the written file.
// Returns ErrDisabled when no directory is configured; the snapshot is
// untouched either way.
func (x *Exporter) Export(entries []*types.Entry) (string, error) {
	if x.dir == "" {
		return "", ErrDisabled
	}
	if err := os.MkdirAll(x.dir, 0o750); err != nil {
		return "", fmt.Errorf("%w: create dir %s: %w", ErrIO, x.dir, err)
	}

	now := time.Now()
	name := fmt.Sprintf("%s%06d%s", now.Format("2006-01-02-15h04m05s"), now.Nanosecond()/1000, fileExt)
	path := filepath.Join(x.dir, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(Render(entries)), 0o640); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ErrIO, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("%w: rename to %s: %w", ErrIO, path, err)
	}
	return path, nil
}
