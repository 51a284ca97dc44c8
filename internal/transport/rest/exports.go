package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"utang-ledger/internal/transport/auth"
)

func (h *Handler) exportLedger(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	window, filters, err := ValidateExportRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	exportID, err := h.exports.StartLedgerExport(r.Context(), user, window, filters)
	if err != nil {
		h.failed(w, r, err, "failed to start export")
		return
	}

	SuccessAccepted(w, "export queued", map[string]interface{}{
		"export_id": exportID,
	})
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exports, err := h.exports.ListExports(r.Context(), user)
	if err != nil {
		h.failed(w, r, err, "failed to get exports")
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportID := chi.URLParam(r, "export_id")
	if exportID == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}

	export, err := h.exports.GetExport(r.Context(), user, exportID)
	if err != nil {
		h.failed(w, r, err, "failed to get export")
		return
	}

	Success(w, "", export)
}

func (h *Handler) backup(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	res, err := h.backups.Backup(r.Context(), user)
	if err != nil {
		h.failed(w, r, err, "failed to write backup")
		return
	}

	Success(w, "backup written", res)
}
