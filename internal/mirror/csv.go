// Package mirror keeps a human-readable CSV copy of every persisted signal,
// one file per mode and token. The database stays canonical; these files are
// a convenience for offline inspection and survive nothing the database
// does not.
package mirror

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"tradercopilot/internal/models"
)

var header = []string{
	"timestamp",
	"token",
	"timeframe",
	"direction",
	"entry",
	"take_profit",
	"stop_loss",
	"confidence",
	"rationale",
	"source",
}

// Writer appends signal rows under dir/<MODE>/<TOKEN>.csv, writing the
// header once per fresh file. Safe for concurrent use.
type Writer struct {
	dir string

	mu sync.Mutex
}

func NewWriter(dir string) *Writer {
	if strings.TrimSpace(dir) == "" {
		dir = "logs"
	}
	return &Writer{dir: dir}
}

func (w *Writer) Append(sig *models.Signal) error {
	if w == nil || sig == nil {
		return nil
	}

	mode := strings.ToUpper(strings.TrimSpace(sig.Mode))
	if mode == "" {
		mode = "DEFAULT"
	}
	dir := filepath.Join(w.dir, mode)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}

	path := filepath.Join(dir, sig.Token+".csv")
	fresh := false
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		fresh = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open mirror file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if fresh {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{
		sig.Timestamp.UTC().Format(time.RFC3339),
		sig.Token,
		sig.Timeframe,
		sig.Direction,
		sig.Entry.String(),
		sig.TakeProfit.String(),
		sig.StopLoss.String(),
		strconv.FormatFloat(sig.Confidence, 'f', -1, 64),
		sig.Rationale,
		sig.Source,
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
