package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"utang-ledger/internal/domain"
	"utang-ledger/internal/ledger"
)

const (
	exportKeyPrefix = "exports:"
	exportSetPrefix = "export_ids:"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// StatusCache keeps export progress records with a TTL plus a per-user index of them.
type StatusCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// FileSink stores a generated file and returns the URL it can be downloaded from.
type FileSink interface {
	Put(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

type ExportNotifier interface {
	NotifyExportProgress(ctx context.Context, user, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, user, exportID, url, filename string) error
	NotifyExportFailed(ctx context.Context, user, exportID, errMsg string) error
}

// LedgerReader is the read side of LedgerStore.
type LedgerReader interface {
	LoadDebts(ctx context.Context, user string) ([]domain.DebtRecord, error)
	LoadPayments(ctx context.Context) ([]domain.PaymentRecord, error)
}

type ExportStatus struct {
	Key      string            `json:"key"`
	Type     string            `json:"type"`
	User     string            `json:"user"`
	Filters  map[string]string `json:"filters"`
	Progress float64           `json:"progress"`
	FileURL  *string           `json:"file_url"`
	Error    *string           `json:"error,omitempty"`
	Created  time.Time         `json:"created_at"`
}

type ExportService struct {
	store    LedgerReader
	engine   *ledger.Engine
	cache    StatusCache
	sink     FileSink
	notifier ExportNotifier
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time

	chunkSize int
	jobs      sync.WaitGroup
}

func NewExportService(
	store LedgerReader,
	engine *ledger.Engine,
	cache StatusCache,
	sink FileSink,
	notifier ExportNotifier,
	ttl time.Duration,
	logger *slog.Logger,
) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	return &ExportService{
		store:     store,
		engine:    engine,
		cache:     cache,
		sink:      sink,
		notifier:  notifier,
		logger:    logger.With("component", "export_service"),
		ttl:       ttl,
		now:       time.Now,
		chunkSize: 100,
	}
}

// Wait blocks until every export started so far has finished.
func (s *ExportService) Wait() {
	s.jobs.Wait()
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, st.Key, string(data), s.ttl); err != nil {
		return err
	}
	return s.cache.SAdd(ctx, exportSetPrefix+st.User, st.Key)
}

func (s *ExportService) progress(ctx context.Context, st *ExportStatus, progress float64, stage string) {
	st.Progress = progress
	if err := s.saveStatus(ctx, st); err != nil {
		s.logger.Warn("failed to save export status", "export_id", st.Key, "err", err)
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyExportProgress(ctx, st.User, st.Key, progress, stage)
	}
}

func (s *ExportService) fail(ctx context.Context, st *ExportStatus, err error) {
	msg := err.Error()
	st.Error = &msg
	s.logger.Error("export failed", "export_id", st.Key, "user", st.User, "err", err)
	if err := s.saveStatus(ctx, st); err != nil {
		s.logger.Warn("failed to save export status", "export_id", st.Key, "err", err)
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyExportFailed(ctx, st.User, st.Key, msg)
	}
}

// StartLedgerExport queues an XLSX report of the user's consolidated ledger within w
// and returns its id immediately. Progress and the final URL are published to the cache.
func (s *ExportService) StartLedgerExport(ctx context.Context, user string, w ledger.Window, filters map[string]string) (string, error) {
	if s.cache == nil {
		return "", errors.New("export status cache not configured")
	}

	status := &ExportStatus{
		Key:     exportKeyPrefix + uuid.NewString(),
		Type:    "ledger",
		User:    user,
		Filters: filters,
		Created: s.now(),
	}
	if err := s.saveStatus(ctx, status); err != nil {
		return "", fmt.Errorf("save export status: %w", err)
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.runLedgerExport(context.Background(), status, w)
	}()

	return status.Key, nil
}

func (s *ExportService) runLedgerExport(ctx context.Context, status *ExportStatus, w ledger.Window) {
	debts, err := s.store.LoadDebts(ctx, status.User)
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("load debts: %w", err))
		return
	}
	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("load payments: %w", err))
		return
	}

	split := s.engine.Consolidate(debts, payments, w)

	f := excelize.NewFile()
	defer f.Close()

	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: status.User,
		Title:   "Utang ledger",
	})

	if err := s.writeDebtsSheet(ctx, f, status, split); err != nil {
		s.fail(ctx, status, err)
		return
	}
	if err := writeSummarySheet(f, ledger.Summarize(split)); err != nil {
		s.fail(ctx, status, err)
		return
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("render workbook: %w", err))
		return
	}

	// 100 is reserved for when the file URL is ready
	s.progress(ctx, status, 95, "uploading")

	fileName := fmt.Sprintf("ledger_%s.xlsx", s.now().Format("20060102_150405"))
	url, err := s.sink.Put(ctx, fileName, xlsxContentType, buf.Bytes())
	if err != nil {
		s.fail(ctx, status, fmt.Errorf("store file: %w", err))
		return
	}

	status.FileURL = &url
	s.progress(ctx, status, 100, "ready")
	if s.notifier != nil {
		_ = s.notifier.NotifyExportComplete(ctx, status.User, status.Key, url, fileName)
	}
	s.logger.Info("export complete", "export_id", status.Key, "user", status.User, "file", fileName)
}

var debtsSheetHeader = []any{
	"Full name", "Relationship", "Debt ID", "Date added", "Due date",
	"Principal", "Interest rate (%)", "Owed", "Paid", "Remaining", "Status", "Notes",
}

func (s *ExportService) writeDebtsSheet(ctx context.Context, f *excelize.File, status *ExportStatus, split ledger.Split) error {
	const sheet = "Debts"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &debtsSheetHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	people := append(append([]ledger.ConsolidatedPerson{}, split.OwedToUser...), split.OwedByUser...)
	total := 0
	for _, p := range people {
		total += len(p.History)
	}

	row, done := 2, 0
	for _, p := range people {
		for _, entry := range p.History {
			due := entry.Debt.DueDate
			if due == "" {
				due = domain.NoDueDate
			}
			values := []any{
				p.FullName,
				string(p.Relationship),
				entry.Debt.ID,
				entry.Debt.DateAdded,
				due,
				money(entry.Debt.Amount),
				money(entry.Debt.InterestRate),
				money(entry.Owed),
				money(entry.Payments),
				money(entry.Remaining),
				string(entry.Status),
				entry.Debt.Notes,
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
			done++

			if done%s.chunkSize == 0 || done == total {
				progress := math.Round(float64(done) / float64(total) * 90)
				s.progress(ctx, status, progress, "generating")
			}
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sum ledger.Summary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	rows := [][]any{
		{"Direction", "People", "Principal", "Owed", "Paid", "Remaining"},
		directionRow(string(domain.OwedToUser), sum.OwedToUser),
		directionRow(string(domain.OwedByUser), sum.OwedByUser),
		{},
		{"Active debts", sum.ActiveDebts},
	}
	for _, st := range []domain.Status{domain.StatusPaid, domain.StatusPending, domain.StatusOverdue} {
		rows = append(rows, []any{string(st), sum.StatusCounts[st]})
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func directionRow(label string, t ledger.DirectionTotals) []any {
	return []any{label, t.People, money(t.Principal), money(t.Owed), money(t.Paid), money(t.Remaining)}
}

// money renders a decimal as a spreadsheet number.
func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// ExportView is an export status as presented to clients.
type ExportView struct {
	Key       string            `json:"key"`
	Type      string            `json:"type"`
	Progress  float64           `json:"progress"`
	FileURL   *string           `json:"file_url"`
	Error     *string           `json:"error,omitempty"`
	Filters   map[string]string `json:"filters"`
	CreatedAt string            `json:"created_at"`
}

func (s *ExportService) view(st ExportStatus) ExportView {
	return ExportView{
		Key:       st.Key,
		Type:      st.Type,
		Progress:  st.Progress,
		FileURL:   st.FileURL,
		Error:     st.Error,
		Filters:   st.Filters,
		CreatedAt: humanizeAgo(st.Created, s.now()),
	}
}

// ListExports returns the user's unexpired exports, newest first.
func (s *ExportService) ListExports(ctx context.Context, user string) ([]ExportView, error) {
	if s.cache == nil {
		return nil, errors.New("export status cache not configured")
	}

	setKey := exportSetPrefix + user
	keys, err := s.cache.SMembers(ctx, setKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		st, err := s.loadStatus(ctx, key)
		if err != nil {
			// expired entries leave their id behind in the index
			_ = s.cache.SRem(ctx, setKey, key)
			continue
		}
		if st.User == user {
			statuses = append(statuses, st)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	out := make([]ExportView, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, s.view(st))
	}
	return out, nil
}

// GetExport returns one export by id, with or without the "exports:" prefix.
func (s *ExportService) GetExport(ctx context.Context, user, exportID string) (ExportView, error) {
	if s.cache == nil {
		return ExportView{}, errors.New("export status cache not configured")
	}

	key := exportID
	if len(key) < len(exportKeyPrefix) || key[:len(exportKeyPrefix)] != exportKeyPrefix {
		key = exportKeyPrefix + key
	}

	st, err := s.loadStatus(ctx, key)
	if err != nil || st.User != user {
		return ExportView{}, ErrExportNotFound
	}
	return s.view(st), nil
}

func (s *ExportService) loadStatus(ctx context.Context, key string) (ExportStatus, error) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return ExportStatus{}, err
	}
	var st ExportStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return ExportStatus{}, fmt.Errorf("failed to parse export status: %w", err)
	}
	return st, nil
}

func humanizeAgo(t, now time.Time) string {
	if !t.Before(now) {
		return "just now"
	}

	minutes := int(now.Sub(t).Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d %s ago", minutes, plural(minutes, "minute", "minutes"))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d %s ago", hours, plural(hours, "hour", "hours"))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%d %s ago", days, plural(days, "day", "days"))
	}
	return t.Format("2006-01-02 15:04")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
