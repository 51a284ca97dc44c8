package ledger

import (
	"testing"

	"utang-ledger/internal/domain"
)

func mustWindow(t *testing.T, from, to string) Window {
	t.Helper()
	w, err := NewWindow(from, to)
	if err != nil {
		t.Fatalf("NewWindow(%q, %q): %v", from, to, err)
	}
	return w
}

func TestConsolidate_GroupsByNameAndDirection(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("1", "Maria", domain.OwedToUser, "100", "0", "2024-01-01", ""),
		debt("2", "Pedro", domain.OwedToUser, "200", "0", "2024-01-02", ""),
		debt("3", "Maria", domain.OwedByUser, "50", "0", "2024-01-03", ""),
		debt("4", "Maria", domain.OwedToUser, "300", "10", "2024-01-04", ""),
		debt("5", "maria", domain.OwedToUser, "10", "0", "2024-01-05", ""),
	}

	split := e.Consolidate(debts, nil, Unbounded)

	if len(split.OwedToUser) != 3 {
		t.Fatalf("expected 3 people owing the user, got %d", len(split.OwedToUser))
	}
	names := []string{split.OwedToUser[0].FullName, split.OwedToUser[1].FullName, split.OwedToUser[2].FullName}
	if names[0] != "Maria" || names[1] != "Pedro" || names[2] != "maria" {
		t.Errorf("encounter order = %v, want [Maria Pedro maria]", names)
	}
	if len(split.OwedByUser) != 1 || split.OwedByUser[0].FullName != "Maria" {
		t.Fatalf("expected Maria alone on the owed-by-user side, got %+v", split.OwedByUser)
	}

	maria := split.OwedToUser[0]
	if len(maria.History) != 2 || maria.History[0].Debt.ID != "1" || maria.History[1].Debt.ID != "4" {
		t.Fatalf("Maria history out of encounter order: %+v", maria.History)
	}
	assertDec(t, "principal", maria.TotalPrincipal, "400")
	assertDec(t, "owed", maria.TotalOwed, "430")
	assertDec(t, "remaining", maria.TotalRemaining, "430")
	assertTotalsConsistent(t, maria)
}

func TestConsolidate_PaymentsAndUnknownDebts(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("1", "Maria", domain.OwedToUser, "1000", "10", "2024-01-01", ""),
	}
	payments := []domain.PaymentRecord{
		payment("1", "100", "2024-01-15"),
		payment("1", "200", "2024-02-15"),
		payment("deleted-debt", "999", "2024-01-20"),
	}

	split := e.Consolidate(debts, payments, Unbounded)
	maria := split.OwedToUser[0]
	assertDec(t, "paid", maria.TotalPaid, "300")
	assertDec(t, "remaining", maria.TotalRemaining, "800")
	if maria.History[0].Status != domain.StatusPending {
		t.Errorf("status = %s, want Pending", maria.History[0].Status)
	}
	assertTotalsConsistent(t, maria)
}

func TestConsolidate_DateWindow(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("old", "Maria", domain.OwedToUser, "100", "0", "2023-12-31", ""),
		debt("in", "Maria", domain.OwedToUser, "200", "0", "2024-01-01", ""),
		debt("edge", "Maria", domain.OwedToUser, "300", "0", "2024-01-31", ""),
		debt("late", "Maria", domain.OwedToUser, "400", "0", "2024-02-01", ""),
	}
	payments := []domain.PaymentRecord{
		payment("in", "50", "2024-01-10"),
		payment("in", "70", "2024-03-01"),
		payment("edge", "30", "2024-01-31"),
		payment("old", "10", "2024-01-05"),
	}

	split := e.Consolidate(debts, payments, mustWindow(t, "2024-01-01", "2024-01-31"))
	maria := split.OwedToUser[0]

	if len(maria.History) != 2 {
		t.Fatalf("expected 2 in-window debts, got %d", len(maria.History))
	}
	if maria.History[0].Debt.ID != "in" || maria.History[1].Debt.ID != "edge" {
		t.Fatalf("unexpected debts in window: %s, %s", maria.History[0].Debt.ID, maria.History[1].Debt.ID)
	}
	// the March payment on "in" falls outside the window
	assertDec(t, "in payments", maria.History[0].Payments, "50")
	assertDec(t, "edge payments", maria.History[1].Payments, "30")
	assertDec(t, "total paid", maria.TotalPaid, "80")
	assertTotalsConsistent(t, maria)
}

func TestConsolidate_PaymentWindowIndependentOfDebtDate(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("1", "Maria", domain.OwedToUser, "500", "0", "2024-01-01", ""),
	}
	payments := []domain.PaymentRecord{
		payment("1", "100", "2024-01-02"),
		payment("1", "100", "2024-06-01"),
	}

	// the debt is in both windows; its payments are counted by their own dates
	january := e.Consolidate(debts, payments, mustWindow(t, "2024-01-01", "2024-01-31")).OwedToUser[0]
	assertDec(t, "january paid", january.TotalPaid, "100")

	open := e.Consolidate(debts, payments, mustWindow(t, "2024-01-01", "")).OwedToUser[0]
	assertDec(t, "open-ended paid", open.TotalPaid, "200")

	// a window that excludes the debt drops it entirely, even though a payment is in range
	later := e.Consolidate(debts, payments, mustWindow(t, "2024-05-01", "2024-12-31"))
	if len(later.OwedToUser) != 0 {
		t.Fatalf("debt created before the window should be excluded, got %+v", later.OwedToUser)
	}
}

func TestConsolidate_LatestDueDate(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("1", "Maria", domain.OwedToUser, "100", "0", "2024-01-01", ""),
		debt("2", "Maria", domain.OwedToUser, "100", "0", "2024-01-02", "2024-05-01"),
		debt("3", "Maria", domain.OwedToUser, "100", "0", "2024-01-03", ""),
		debt("4", "Maria", domain.OwedToUser, "100", "0", "2024-01-04", "2024-03-01"),
		debt("5", "Pedro", domain.OwedToUser, "100", "0", "2024-01-05", ""),
	}

	split := e.Consolidate(debts, nil, Unbounded)
	if got := split.OwedToUser[0].LatestDueDate; got != "2024-05-01" {
		t.Errorf("Maria latest due = %q, want 2024-05-01", got)
	}
	if got := split.OwedToUser[1].LatestDueDate; got != "" {
		t.Errorf("Pedro latest due = %q, want empty", got)
	}
}

func TestConsolidate_UnparsableDatesAreUnbounded(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("bad", "Maria", domain.OwedToUser, "100", "0", "not-a-date", ""),
	}
	payments := []domain.PaymentRecord{
		payment("bad", "40", "2024/01/01"),
	}

	split := e.Consolidate(debts, payments, mustWindow(t, "2024-01-01", "2024-01-31"))
	if len(split.OwedToUser) != 1 {
		t.Fatal("debt with unparsable date must not be dropped")
	}
	assertDec(t, "paid", split.OwedToUser[0].TotalPaid, "40")
}

func TestConsolidate_StatusUsesClock(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("late", "Maria", domain.OwedToUser, "100", "0", "2023-06-01", "2024-01-01"),
		debt("settled", "Maria", domain.OwedToUser, "100", "0", "2023-06-01", "2024-01-01"),
	}
	payments := []domain.PaymentRecord{payment("settled", "100", "2023-07-01")}

	maria := e.Consolidate(debts, payments, Unbounded).OwedToUser[0]
	if maria.History[0].Status != domain.StatusOverdue {
		t.Errorf("late status = %s, want Overdue", maria.History[0].Status)
	}
	if maria.History[1].Status != domain.StatusPaid {
		t.Errorf("settled status = %s, want Paid", maria.History[1].Status)
	}
}

func TestConsolidate_OldestFirstOrdersHistory(t *testing.T) {
	e := testEngine(WithAllocationOrder(OldestFirst))
	debts := []domain.DebtRecord{
		debt("c", "Maria", domain.OwedToUser, "100", "0", "2024-03-01", ""),
		debt("x", "Maria", domain.OwedToUser, "100", "0", "garbage", ""),
		debt("a", "Maria", domain.OwedToUser, "100", "0", "2024-01-01", ""),
		debt("b", "Maria", domain.OwedToUser, "100", "0", "2024-02-01", ""),
	}

	maria := e.Consolidate(debts, nil, Unbounded).OwedToUser[0]
	var got []string
	for _, entry := range maria.History {
		got = append(got, entry.Debt.ID)
	}
	want := []string{"a", "b", "c", "x"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history order = %v, want %v", got, want)
		}
	}
}

func TestNewWindow_RejectsMalformedBounds(t *testing.T) {
	if _, err := NewWindow("2024-13-01", ""); err == nil {
		t.Error("expected error for invalid month")
	}
	if _, err := NewWindow("", "yesterday"); err == nil {
		t.Error("expected error for non-date upper bound")
	}
	w, err := NewWindow("", "")
	if err != nil || !w.IsUnbounded() {
		t.Errorf("empty bounds should give an unbounded window, got %+v, %v", w, err)
	}
}
