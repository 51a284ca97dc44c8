package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/ledger"
	"utang-ledger/internal/repository"
)

var fixedNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(opts ...ledger.Option) *ledger.Engine {
	base := []ledger.Option{
		ledger.WithClock(func() time.Time { return fixedNow }),
		ledger.WithLogger(quietLogger()),
	}
	return ledger.NewEngine(append(base, opts...)...)
}

func newStore(t *testing.T) *repository.CSVLedger {
	t.Helper()
	store, err := repository.NewCSVLedger(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func newLedgerService(t *testing.T, opts ...ledger.Option) (*LedgerService, *repository.CSVLedger, *fakeNotifier) {
	t.Helper()
	store := newStore(t)
	notifier := &fakeNotifier{}
	svc := NewLedgerService(store, testEngine(opts...), notifier, quietLogger())

	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("debt-%d", seq)
	}
	return svc, store, notifier
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s; got %s", label, want, got)
	}
}

type fakeNotifier struct {
	mu       sync.Mutex
	events   []string
	payloads []map[string]any
}

func (n *fakeNotifier) record(event string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.payloads = append(n.payloads, payload)
}

func (n *fakeNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *fakeNotifier) NotifyPaymentRecorded(_ context.Context, _ string, payload map[string]any) error {
	n.record("payment_recorded", payload)
	return nil
}

func (n *fakeNotifier) NotifyExportProgress(_ context.Context, _, id string, progress float64, stage string) error {
	n.record("export_progress", map[string]any{"id": id, "progress": progress, "stage": stage})
	return nil
}

func (n *fakeNotifier) NotifyExportComplete(_ context.Context, _, id, url, filename string) error {
	n.record("export_complete", map[string]any{"id": id, "url": url, "filename": filename})
	return nil
}

func (n *fakeNotifier) NotifyExportFailed(_ context.Context, _, id, msg string) error {
	n.record("export_failed", map[string]any{"id": id, "message": msg})
	return nil
}

type memCache struct {
	mu   sync.Mutex
	kv   map[string]string
	sets map[string]map[string]bool
}

func newMemCache() *memCache {
	return &memCache{kv: map[string]string{}, sets: map[string]map[string]bool{}}
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kv[key] = fmt.Sprint(value)
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.kv[key]
	if !ok {
		return "", fmt.Errorf("missing key %s", key)
	}
	return v, nil
}

func (c *memCache) SAdd(_ context.Context, key string, members ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets[key] == nil {
		c.sets[key] = map[string]bool{}
	}
	for _, m := range members {
		c.sets[key][fmt.Sprint(m)] = true
	}
	return nil
}

func (c *memCache) SRem(_ context.Context, key string, members ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range members {
		delete(c.sets[key], fmt.Sprint(m))
	}
	return nil
}

func (c *memCache) SMembers(_ context.Context, key string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for m := range c.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

type memSink struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemSink() *memSink {
	return &memSink{files: map[string][]byte{}}
}

func (s *memSink) Put(_ context.Context, fileName, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.files[fileName] = append([]byte(nil), data...)
	return "/files/" + fileName, nil
}
