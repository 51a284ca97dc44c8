package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"utang-ledger/internal/transport/auth"
)

func (h *Handler) addDebt(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	in, err := ValidateDebtRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	debt, err := h.ledger.AddDebt(r.Context(), user, in)
	if err != nil {
		h.failed(w, r, err, "failed to add debt")
		return
	}

	SuccessCreated(w, "debt added", newDebtView(debt))
}

func (h *Handler) editDebt(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	debtID := chi.URLParam(r, "debt_id")
	if debtID == "" {
		ErrorBadRequest(w, "debt_id is required")
		return
	}

	in, err := ValidateDebtRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	debt, err := h.ledger.EditDebt(r.Context(), user, debtID, in)
	if err != nil {
		h.failed(w, r, err, "failed to edit debt")
		return
	}

	Success(w, "debt updated", newDebtView(debt))
}

func (h *Handler) debtPayments(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	payments, err := h.ledger.DebtPayments(r.Context(), user, chi.URLParam(r, "debt_id"))
	if err != nil {
		h.failed(w, r, err, "failed to load payments")
		return
	}

	Success(w, "", newPaymentViews(payments))
}

func (h *Handler) deletePerson(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	q := r.URL.Query()
	removed, err := h.ledger.DeletePerson(r.Context(), user, q.Get("name"), q.Get("relationship"))
	if err != nil {
		h.failed(w, r, err, "failed to delete person")
		return
	}

	Success(w, "person deleted", map[string]interface{}{"removed_debts": removed})
}
