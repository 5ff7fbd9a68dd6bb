// Package audit keeps the append-only trail of business actions.
package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gudangku/internal/docstore"
	"gudangku/internal/domain"
)

const auditDoc = "audit"

var csvHeader = []string{
	"Action", "Username", "Item", "Buying Price", "Selling Price",
	"Quantity Sold", "Total Revenue", "Date Added", "Date Sold", "Timestamp",
}

// Trail is the mutex-guarded, append-only audit log. Appending and
// persisting happen under one lock, so the persisted order always equals
// the append order.
type Trail struct {
	mu      sync.Mutex
	entries []domain.AuditEntry

	docs docstore.Store
	log  *slog.Logger
	now  func() time.Time
}

func New(ctx context.Context, docs docstore.Store, log *slog.Logger) (*Trail, error) {
	t := &Trail{docs: docs, log: log, now: time.Now}
	if _, err := docs.Load(ctx, auditDoc, &t.entries); err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	return t, nil
}

// Append records one entry, stamping its timestamp. Entries are never
// edited or removed afterwards. Persistence failures are logged and the
// in-memory trail stays authoritative.
func (t *Trail) Append(ctx context.Context, entry domain.AuditEntry) domain.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry.Timestamp = t.now().UTC()
	t.entries = append(t.entries, entry)
	if err := t.docs.Save(ctx, auditDoc, t.entries); err != nil {
		t.log.Warn("persist audit trail failed", "error", err)
	}
	return entry
}

// Entries returns a snapshot copy in append order.
func (t *Trail) Entries() []domain.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.AuditEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// WriteCSV streams the whole trail, oldest first, as CSV.
func (t *Trail) WriteCSV(w io.Writer) error {
	entries := t.Entries()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Action,
			e.Username,
			e.ItemName,
			strconv.FormatFloat(e.BuyingPrice, 'f', 2, 64),
			strconv.FormatFloat(e.SellingPrice, 'f', 2, 64),
			strconv.Itoa(e.QuantitySold),
			strconv.FormatFloat(e.TotalRevenue, 'f', 2, 64),
			formatTime(e.DateAdded),
			formatTime(e.DateSold),
			formatTime(e.Timestamp),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Close waits for any in-flight append to finish persisting.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339)
}
