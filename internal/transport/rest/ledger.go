package rest

import (
	"net/http"

	"utang-ledger/internal/transport/auth"
)

func (h *Handler) getLedger(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	window, err := WindowFromQuery(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}
	filter, err := FilterFromQuery(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	split, err := h.ledger.Ledger(r.Context(), user, window, filter)
	if err != nil {
		h.failed(w, r, err, "failed to load ledger")
		return
	}

	Success(w, "", newSplitView(split))
}

func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	window, err := WindowFromQuery(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	report, err := h.ledger.Analytics(r.Context(), user, window)
	if err != nil {
		h.failed(w, r, err, "failed to build analytics")
		return
	}

	Success(w, "", newAnalyticsView(report))
}

func (h *Handler) clearLedger(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	removed, err := h.ledger.ClearUserData(r.Context(), user)
	if err != nil {
		h.failed(w, r, err, "failed to clear ledger")
		return
	}

	Success(w, "ledger cleared", map[string]interface{}{"removed_debts": removed})
}
