package ledger

import (
	"errors"
	"testing"

	"utang-ledger/internal/domain"
)

func singleDebtPerson(t *testing.T, e *Engine) ConsolidatedPerson {
	t.Helper()
	debts := []domain.DebtRecord{debt("d1", "Maria", domain.OwedToUser, "1000", "10", "2024-01-01", "")}
	split := e.Consolidate(debts, nil, Unbounded)
	p, ok := split.Find("Maria", domain.OwedToUser)
	if !ok {
		t.Fatal("Maria not consolidated")
	}
	return p
}

func TestAllocate_SingleDebtScenario(t *testing.T) {
	e := testEngine()
	p := singleDebtPerson(t, e)
	assertDec(t, "owed", p.TotalOwed, "1100")

	t.Run("full payment clears the debt", func(t *testing.T) {
		pays, err := Allocate(p, dec("1100"), "2024-02-01")
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if len(pays) != 1 {
			t.Fatalf("expected 1 payment record, got %d", len(pays))
		}
		after := Apply(p, pays, e.Clock())
		assertDec(t, "remaining", after.TotalRemaining, "0")
		if after.History[0].Status != domain.StatusPaid {
			t.Errorf("status = %s, want Paid", after.History[0].Status)
		}
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		pays, err := Allocate(p, dec("1101"), "2024-02-01")
		if !errors.Is(err, ErrAmountExceedsBalance) {
			t.Fatalf("err = %v, want ErrAmountExceedsBalance", err)
		}
		if len(pays) != 0 {
			t.Fatalf("expected no payment records, got %d", len(pays))
		}
	})

	t.Run("two halves equal one full payment", func(t *testing.T) {
		first, err := Allocate(p, dec("550"), "2024-02-01")
		if err != nil {
			t.Fatalf("first Allocate: %v", err)
		}
		mid := Apply(p, first, e.Clock())
		second, err := Allocate(mid, dec("550"), "2024-03-01")
		if err != nil {
			t.Fatalf("second Allocate: %v", err)
		}
		split := Apply(mid, second, e.Clock())

		full, _ := Allocate(p, dec("1100"), "2024-02-01")
		once := Apply(p, full, e.Clock())

		if !split.TotalRemaining.Equal(once.TotalRemaining) {
			t.Errorf("sequential remaining %s != single remaining %s", split.TotalRemaining, once.TotalRemaining)
		}
		if split.History[0].Status != once.History[0].Status {
			t.Errorf("sequential status %s != single status %s", split.History[0].Status, once.History[0].Status)
		}
	})
}

func TestAllocate_RollsForwardAcrossDebts(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("a", "Pedro", domain.OwedByUser, "300", "0", "2024-03-01", ""),
		debt("b", "Pedro", domain.OwedByUser, "500", "0", "2024-01-01", ""),
	}
	p, _ := e.Consolidate(debts, nil, Unbounded).Find("Pedro", domain.OwedByUser)

	pays, err := Allocate(p, dec("700"), "2024-04-01")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(pays) != 2 {
		t.Fatalf("expected 2 payment records, got %d", len(pays))
	}
	if pays[0].DebtID != "a" || pays[1].DebtID != "b" {
		t.Fatalf("allocation order = [%s %s], want [a b]", pays[0].DebtID, pays[1].DebtID)
	}
	assertDec(t, "first", pays[0].Amount, "300")
	assertDec(t, "second", pays[1].Amount, "400")
	for _, pay := range pays {
		if pay.Date != "2024-04-01" {
			t.Errorf("payment date = %s, want 2024-04-01", pay.Date)
		}
	}

	after := Apply(p, pays, e.Clock())
	assertDec(t, "first remaining", after.History[0].Remaining, "0")
	assertDec(t, "second remaining", after.History[1].Remaining, "100")
	assertTotalsConsistent(t, after)
}

func TestAllocate_OldestFirstPolicy(t *testing.T) {
	e := testEngine(WithAllocationOrder(OldestFirst))
	debts := []domain.DebtRecord{
		debt("a", "Pedro", domain.OwedByUser, "300", "0", "2024-03-01", ""),
		debt("b", "Pedro", domain.OwedByUser, "500", "0", "2024-01-01", ""),
	}
	p, _ := e.Consolidate(debts, nil, Unbounded).Find("Pedro", domain.OwedByUser)

	pays, err := Allocate(p, dec("700"), "2024-04-01")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if pays[0].DebtID != "b" {
		t.Fatalf("oldest debt should be paid first, got %s", pays[0].DebtID)
	}
	assertDec(t, "oldest", pays[0].Amount, "500")
	assertDec(t, "newer", pays[1].Amount, "200")
}

func TestAllocate_Rejections(t *testing.T) {
	e := testEngine()
	p := singleDebtPerson(t, e)

	for _, amount := range []string{"0", "-1", "-0.01"} {
		pays, err := Allocate(p, dec(amount), "2024-02-01")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %s: err = %v, want ErrInvalidAmount", amount, err)
		}
		if pays != nil {
			t.Errorf("amount %s: expected no payment records", amount)
		}
	}
}

func TestAllocate_ExactTotalPaysEverything(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("a", "Ana", domain.OwedToUser, "100", "5", "2024-01-01", "2024-02-01"),
		debt("b", "Ana", domain.OwedToUser, "200", "0", "2024-01-05", ""),
		debt("c", "Ana", domain.OwedToUser, "50", "12.5", "2024-01-09", "2030-01-01"),
	}
	payments := []domain.PaymentRecord{payment("b", "20", "2024-01-10")}
	p, _ := e.Consolidate(debts, payments, Unbounded).Find("Ana", domain.OwedToUser)

	pays, err := Allocate(p, p.TotalRemaining, "2024-05-01")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(pays) != 3 {
		t.Fatalf("expected 3 payment records, got %d", len(pays))
	}

	after := Apply(p, pays, e.Clock())
	for _, entry := range after.History {
		if !entry.Remaining.IsZero() {
			t.Errorf("debt %s remaining = %s, want 0", entry.Debt.ID, entry.Remaining)
		}
		if entry.Status != domain.StatusPaid {
			t.Errorf("debt %s status = %s, want Paid", entry.Debt.ID, entry.Status)
		}
	}
	assertTotalsConsistent(t, after)
}

func TestAllocate_SkipsSettledDebts(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("a", "Ana", domain.OwedToUser, "100", "0", "2024-01-01", ""),
		debt("b", "Ana", domain.OwedToUser, "100", "0", "2024-01-02", ""),
	}
	payments := []domain.PaymentRecord{payment("a", "100", "2024-01-03")}
	p, _ := e.Consolidate(debts, payments, Unbounded).Find("Ana", domain.OwedToUser)

	pays, err := Allocate(p, dec("40"), "2024-02-01")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(pays) != 1 || pays[0].DebtID != "b" {
		t.Fatalf("expected a single record against b, got %+v", pays)
	}
}

func TestAllocate_SequentialEqualsSingle(t *testing.T) {
	e := testEngine()
	debts := []domain.DebtRecord{
		debt("a", "Ana", domain.OwedToUser, "300", "0", "2024-01-01", ""),
		debt("b", "Ana", domain.OwedToUser, "500", "10", "2024-01-02", ""),
	}
	p, _ := e.Consolidate(debts, nil, Unbounded).Find("Ana", domain.OwedToUser)

	once, err := Allocate(p, dec("620"), "2024-02-01")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	single := Apply(p, once, e.Clock())

	seq := p
	for _, part := range []string{"120", "250", "250"} {
		pays, err := Allocate(seq, dec(part), "2024-02-01")
		if err != nil {
			t.Fatalf("Allocate(%s): %v", part, err)
		}
		seq = Apply(seq, pays, e.Clock())
	}

	if !seq.TotalRemaining.Equal(single.TotalRemaining) {
		t.Fatalf("sequential remaining %s != single remaining %s", seq.TotalRemaining, single.TotalRemaining)
	}
	for i := range seq.History {
		if !seq.History[i].Remaining.Equal(single.History[i].Remaining) {
			t.Errorf("debt %s: sequential %s != single %s",
				seq.History[i].Debt.ID, seq.History[i].Remaining, single.History[i].Remaining)
		}
	}
}
