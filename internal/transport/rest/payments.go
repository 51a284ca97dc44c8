package rest

import (
	"net/http"

	"utang-ledger/internal/transport/auth"
)

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUser(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	in, err := ValidatePaymentRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	res, err := h.ledger.AddPayment(r.Context(), user, in)
	if err != nil {
		h.failed(w, r, err, "failed to record payment")
		return
	}

	SuccessCreated(w, "payment recorded", map[string]interface{}{
		"payments": newPaymentViews(res.Records),
		"person":   newPersonView(res.Person),
	})
}
