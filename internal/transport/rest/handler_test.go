package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"utang-ledger/internal/ledger"
	"utang-ledger/internal/repository"
	"utang-ledger/internal/service"
	"utang-ledger/internal/transport/auth"
)

type fakeExporter struct {
	started []string
}

func (f *fakeExporter) StartLedgerExport(_ context.Context, user string, _ ledger.Window, filters map[string]string) (string, error) {
	f.started = append(f.started, user+"|"+filters["from"])
	return "exports:abc", nil
}

func (f *fakeExporter) ListExports(context.Context, string) ([]service.ExportView, error) {
	return []service.ExportView{{Key: "exports:abc", Type: "ledger"}}, nil
}

func (f *fakeExporter) GetExport(_ context.Context, _, exportID string) (service.ExportView, error) {
	if exportID != "abc" && exportID != "exports:abc" {
		return service.ExportView{}, service.ErrExportNotFound
	}
	return service.ExportView{Key: "exports:abc", Type: "ledger", Progress: 100}, nil
}

type fakeBackups struct{}

func (fakeBackups) Backup(_ context.Context, user string) (service.BackupResult, error) {
	return service.BackupResult{DebtsURL: "/files/" + user + "_debts.csv"}, nil
}

type apiResult struct {
	ErrorCode int             `json:"error_code"`
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeExporter) {
	t.Helper()
	store, err := repository.NewCSVLedger(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := ledger.NewEngine(ledger.WithLogger(logger))
	exporter := &fakeExporter{}

	h := NewHandler(service.NewLedgerService(store, engine, nil, logger), exporter, fakeBackups{}, logger)
	tokens := auth.StaticTokens{"juan-token": "juan", "maria-token": "maria"}
	srv := httptest.NewServer(h.InitRouterWithAuth(auth.BearerMiddleware(tokens, logger)))
	t.Cleanup(srv.Close)
	return srv, exporter
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, apiResult) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResult
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode, out
}

func TestRoutes_RequireToken(t *testing.T) {
	srv, _ := newTestServer(t)
	if code, _ := call(t, srv, http.MethodGet, "/ledger", "", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401; got %d", code)
	}
	if code, _ := call(t, srv, http.MethodGet, "/ledger", "bad", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token; got %d", code)
	}
}

func TestDebtAndPaymentFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	code, res := call(t, srv, http.MethodPost, "/debts", "juan-token",
		`{"full_name":"Ana","amount":300,"relationship":"Who owes me","date_added":"2024-01-01"}`)
	if code != http.StatusCreated {
		t.Fatalf("add debt: expected 201; got %d (%s)", code, res.Message)
	}
	var debt struct {
		DebtID  string  `json:"debt_id"`
		Amount  string  `json:"amount"`
		DueDate *string `json:"due_date"`
	}
	if err := json.Unmarshal(res.Data, &debt); err != nil {
		t.Fatalf("decode debt: %v", err)
	}
	if debt.DebtID == "" || debt.Amount != "300" || debt.DueDate != nil {
		t.Fatalf("unexpected debt %+v", debt)
	}

	if code, res := call(t, srv, http.MethodPost, "/debts", "juan-token",
		`{"full_name":"Ana","amount":"500","date_added":"2024-02-01"}`); code != http.StatusCreated {
		t.Fatalf("add second debt: %d (%s)", code, res.Message)
	}

	code, res = call(t, srv, http.MethodPost, "/payments", "juan-token",
		`{"full_name":"Ana","relationship":"Who owes me","amount":700,"date":"2024-03-01"}`)
	if code != http.StatusCreated {
		t.Fatalf("add payment: expected 201; got %d (%s)", code, res.Message)
	}
	var payment struct {
		Payments []struct {
			DebtID        string `json:"debt_id"`
			PaymentAmount string `json:"payment_amount"`
		} `json:"payments"`
		Person struct {
			TotalRemaining string `json:"total_remaining"`
		} `json:"person"`
	}
	if err := json.Unmarshal(res.Data, &payment); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if len(payment.Payments) != 2 || payment.Payments[0].PaymentAmount != "300" || payment.Payments[1].PaymentAmount != "400" {
		t.Fatalf("unexpected allocation %+v", payment.Payments)
	}
	if payment.Person.TotalRemaining != "100" {
		t.Fatalf("expected remaining 100; got %s", payment.Person.TotalRemaining)
	}

	code, res = call(t, srv, http.MethodGet, "/debts/"+debt.DebtID+"/payments", "juan-token", "")
	if code != http.StatusOK || !strings.Contains(string(res.Data), `"payment_date":"2024-03-01"`) {
		t.Fatalf("debt payments: %d %s", code, res.Data)
	}

	if code, _ := call(t, srv, http.MethodGet, "/debts/"+debt.DebtID+"/payments", "maria-token", ""); code != http.StatusNotFound {
		t.Fatalf("another user's debt: expected 404; got %d", code)
	}
}

func TestAddPayment_ErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	if code, res := call(t, srv, http.MethodPost, "/debts", "juan-token", `{"full_name":"Ana","amount":"100"}`); code != http.StatusCreated {
		t.Fatalf("seed: %d (%s)", code, res.Message)
	}

	cases := []struct {
		name string
		body string
		code int
	}{
		{"exceeds balance", `{"full_name":"Ana","relationship":"Who owes me","amount":"150"}`, http.StatusUnprocessableEntity},
		{"zero", `{"full_name":"Ana","relationship":"Who owes me","amount":0}`, http.StatusUnprocessableEntity},
		{"unknown person", `{"full_name":"Zed","relationship":"Who owes me","amount":1}`, http.StatusNotFound},
		{"not a number", `{"full_name":"Ana","relationship":"Who owes me","amount":"abc"}`, http.StatusBadRequest},
		{"bad json", `{"full_name":`, http.StatusBadRequest},
		{"object amount", `{"full_name":"Ana","relationship":"Who owes me","amount":{}}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, res := call(t, srv, http.MethodPost, "/payments", "juan-token", tc.body)
			if code != tc.code || res.ErrorCode != tc.code || res.Status != "error" {
				t.Fatalf("expected %d; got %d %+v", tc.code, code, res)
			}
		})
	}
}

func TestGetLedger_FiltersAndAnalytics(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, body := range []string{
		`{"full_name":"Ana","amount":"100","date_added":"2024-01-10"}`,
		`{"full_name":"Ben","amount":"50","relationship":"owed_by_user","date_added":"2024-06-10","due_date":"2024-07-01"}`,
	} {
		if code, res := call(t, srv, http.MethodPost, "/debts", "juan-token", body); code != http.StatusCreated {
			t.Fatalf("seed: %d (%s)", code, res.Message)
		}
	}

	code, res := call(t, srv, http.MethodGet, "/ledger?status=Overdue", "juan-token", "")
	if code != http.StatusOK {
		t.Fatalf("ledger: %d (%s)", code, res.Message)
	}
	var split struct {
		OwedToUser []struct {
			FullName string `json:"full_name"`
		} `json:"owed_to_user"`
		OwedByUser []struct {
			FullName      string  `json:"full_name"`
			LatestDueDate *string `json:"latest_due_date"`
		} `json:"owed_by_user"`
	}
	if err := json.Unmarshal(res.Data, &split); err != nil {
		t.Fatalf("decode ledger: %v", err)
	}
	if len(split.OwedToUser) != 0 || len(split.OwedByUser) != 1 || split.OwedByUser[0].FullName != "Ben" {
		t.Fatalf("unexpected filtered split %+v", split)
	}
	if split.OwedByUser[0].LatestDueDate == nil || *split.OwedByUser[0].LatestDueDate != "2024-07-01" {
		t.Fatalf("unexpected latest due date %v", split.OwedByUser[0].LatestDueDate)
	}

	for _, q := range []string{"?status=Late", "?from=2024-13-01", "?min_remaining=lots", "?from=2024-05-01&to=2024-01-01"} {
		if code, _ := call(t, srv, http.MethodGet, "/ledger"+q, "juan-token", ""); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400; got %d", q, code)
		}
	}

	code, res = call(t, srv, http.MethodGet, "/analytics?from=2024-06-01", "juan-token", "")
	if code != http.StatusOK {
		t.Fatalf("analytics: %d (%s)", code, res.Message)
	}
	var analytics struct {
		OwedToUser struct {
			People int `json:"people"`
		} `json:"owed_to_user"`
		OwedByUser struct {
			Remaining string `json:"remaining"`
		} `json:"owed_by_user"`
		ActiveDebts int `json:"active_debts"`
	}
	if err := json.Unmarshal(res.Data, &analytics); err != nil {
		t.Fatalf("decode analytics: %v", err)
	}
	if analytics.OwedToUser.People != 0 || analytics.OwedByUser.Remaining != "50" || analytics.ActiveDebts != 1 {
		t.Fatalf("unexpected analytics %+v", analytics)
	}
}

func TestDeletePersonAndClear(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, body := range []string{
		`{"full_name":"Ana","amount":"100"}`,
		`{"full_name":"Ana","amount":"20"}`,
		`{"full_name":"Ben","amount":"50"}`,
	} {
		call(t, srv, http.MethodPost, "/debts", "juan-token", body)
	}

	code, res := call(t, srv, http.MethodDelete, "/people?name=Ana&relationship=owed_to_user", "juan-token", "")
	if code != http.StatusOK || !strings.Contains(string(res.Data), `"removed_debts":2`) {
		t.Fatalf("delete person: %d %s", code, res.Data)
	}
	if code, _ := call(t, srv, http.MethodDelete, "/people?name=Ana&relationship=owed_to_user", "juan-token", ""); code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404; got %d", code)
	}

	code, res = call(t, srv, http.MethodDelete, "/ledger", "juan-token", "")
	if code != http.StatusOK || !strings.Contains(string(res.Data), `"removed_debts":1`) {
		t.Fatalf("clear: %d %s", code, res.Data)
	}
}

func TestExportRoutes(t *testing.T) {
	srv, exporter := newTestServer(t)

	code, res := call(t, srv, http.MethodPost, "/export/ledger", "juan-token", `{"from":"2024-01-01"}`)
	if code != http.StatusAccepted || !strings.Contains(string(res.Data), "exports:abc") {
		t.Fatalf("start export: %d %s", code, res.Data)
	}
	if len(exporter.started) != 1 || exporter.started[0] != "juan|2024-01-01" {
		t.Fatalf("unexpected export calls %v", exporter.started)
	}

	if code, _ := call(t, srv, http.MethodPost, "/export/ledger", "juan-token", `{"to":"01/02/2024"}`); code != http.StatusBadRequest {
		t.Fatalf("bad window: expected 400; got %d", code)
	}
	if code, _ := call(t, srv, http.MethodGet, "/export/", "juan-token", ""); code != http.StatusOK {
		t.Fatalf("list exports: %d", code)
	}
	if code, _ := call(t, srv, http.MethodGet, "/export/abc", "juan-token", ""); code != http.StatusOK {
		t.Fatalf("get export: %d", code)
	}
	if code, _ := call(t, srv, http.MethodGet, "/export/zzz", "juan-token", ""); code != http.StatusNotFound {
		t.Fatalf("missing export: expected 404; got %d", code)
	}

	code, res = call(t, srv, http.MethodPost, "/backup", "juan-token", "")
	if code != http.StatusOK || !strings.Contains(string(res.Data), "/files/juan_debts.csv") {
		t.Fatalf("backup: %d %s", code, res.Data)
	}
}
