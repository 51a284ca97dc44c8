package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"utang-ledger/internal/domain"
	"utang-ledger/internal/ledger"
	"utang-ledger/internal/service"
)

type LedgerManager interface {
	Ledger(ctx context.Context, user string, w ledger.Window, f ledger.PersonFilter) (ledger.Split, error)
	Analytics(ctx context.Context, user string, w ledger.Window) (service.AnalyticsReport, error)
	DebtPayments(ctx context.Context, user, debtID string) ([]domain.PaymentRecord, error)
	AddDebt(ctx context.Context, user string, in service.DebtInput) (domain.DebtRecord, error)
	EditDebt(ctx context.Context, user, debtID string, in service.DebtInput) (domain.DebtRecord, error)
	DeletePerson(ctx context.Context, user, fullName, relationship string) (int, error)
	ClearUserData(ctx context.Context, user string) (int, error)
	AddPayment(ctx context.Context, user string, in service.PaymentInput) (service.PaymentResult, error)
}

type LedgerExporter interface {
	StartLedgerExport(ctx context.Context, user string, w ledger.Window, filters map[string]string) (string, error)
	ListExports(ctx context.Context, user string) ([]service.ExportView, error)
	GetExport(ctx context.Context, user, exportID string) (service.ExportView, error)
}

type BackupMaker interface {
	Backup(ctx context.Context, user string) (service.BackupResult, error)
}

type Handler struct {
	ledger  LedgerManager
	exports LedgerExporter
	backups BackupMaker
	logger  *slog.Logger
}

func NewHandler(ledger LedgerManager, exports LedgerExporter, backups BackupMaker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ledger:  ledger,
		exports: exports,
		backups: backups,
		logger:  logger.With("component", "http"),
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Get("/ledger", h.getLedger)
	r.Delete("/ledger", h.clearLedger)
	r.Get("/analytics", h.getAnalytics)

	r.Post("/debts", h.addDebt)
	r.Put("/debts/{debt_id}", h.editDebt)
	r.Get("/debts/{debt_id}/payments", h.debtPayments)
	r.Delete("/people", h.deletePerson)

	r.Post("/payments", h.addPayment)

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/{export_id}", h.getExport)
		r.Post("/ledger", h.exportLedger)
	})
	r.Post("/backup", h.backup)

	return r
}
