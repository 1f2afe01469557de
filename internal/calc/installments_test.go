package calc

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
)

func TestSplitInstallments_Example(t *testing.T) {
	got, err := SplitInstallments(InstallmentPlan{
		TotalAmount:      decimal.RequireFromString("1000.00"),
		InstallmentCount: 3,
		FirstDueDate:     NewDate(2024, time.January, 15),
		FirstReceivable:  false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		seq        int
		amount     string
		due        time.Time
		receivable bool
	}{
		{1, "333.33", NewDate(2024, time.January, 15), false},
		{2, "333.33", NewDate(2024, time.February, 15), true},
		{3, "333.34", NewDate(2024, time.March, 15), true},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d installments, got %d", len(want), len(got))
	}
	for i, w := range want {
		g := got[i]
		if g.SequenceNumber != w.seq {
			t.Errorf("installment %d: sequence %d, want %d", i, g.SequenceNumber, w.seq)
		}
		if !g.Amount.Equal(decimal.RequireFromString(w.amount)) {
			t.Errorf("installment %d: amount %s, want %s", i, g.Amount, w.amount)
		}
		if !g.DueDate.Equal(w.due) {
			t.Errorf("installment %d: due %s, want %s", i, g.DueDate, w.due)
		}
		if g.Receivable != w.receivable {
			t.Errorf("installment %d: receivable %t, want %t", i, g.Receivable, w.receivable)
		}
	}
}

func TestSplitInstallments_SumMatchesTotal(t *testing.T) {
	totals := []string{"0.01", "0.05", "1.00", "10.01", "99.99", "100.00", "333.33", "1000.00", "1234.56", "98765.43", "1000000.00"}
	first := NewDate(2024, time.May, 10)

	for _, raw := range totals {
		total := decimal.RequireFromString(raw)
		for count := 1; count <= 24; count++ {
			got, err := SplitInstallments(InstallmentPlan{TotalAmount: total, InstallmentCount: count, FirstDueDate: first})
			if err != nil {
				t.Fatalf("total %s count %d: unexpected error: %v", raw, count, err)
			}
			if len(got) != count {
				t.Fatalf("total %s count %d: got %d installments", raw, count, len(got))
			}
			if sum := SumInstallments(got); !sum.Equal(total) {
				t.Errorf("total %s count %d: sum %s", raw, count, sum)
			}
			for _, inst := range got {
				if !inst.Amount.Equal(inst.Amount.Round(2)) {
					t.Errorf("total %s count %d: amount %s has more than 2 decimals", raw, count, inst.Amount)
				}
				if inst.Amount.IsNegative() {
					t.Errorf("total %s count %d: negative amount %s", raw, count, inst.Amount)
				}
			}
		}
	}
}

func TestSplitInstallments_MonthlyDueDates(t *testing.T) {
	first := NewDate(2023, time.November, 20)
	got, err := SplitInstallments(InstallmentPlan{
		TotalAmount:      decimal.NewFromInt(1200),
		InstallmentCount: 12,
		FirstDueDate:     first,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i+1 < len(got); i++ {
		if next := AddMonths(got[i].DueDate, 1); !next.Equal(got[i+1].DueDate) {
			t.Errorf("installment %d due %s, expected one month after %s", i+2, got[i+1].DueDate, got[i].DueDate)
		}
	}
	if !got[2].DueDate.Equal(NewDate(2024, time.January, 20)) {
		t.Errorf("third installment should cross the year boundary, got %s", got[2].DueDate)
	}
}

func TestSplitInstallments_MonthEndAnchoredOnFirstDate(t *testing.T) {
	got, err := SplitInstallments(InstallmentPlan{
		TotalAmount:      decimal.NewFromInt(300),
		InstallmentCount: 3,
		FirstDueDate:     NewDate(2024, time.January, 31),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		NewDate(2024, time.January, 31),
		NewDate(2024, time.February, 29),
		NewDate(2024, time.March, 31),
	}
	for i, w := range want {
		if !got[i].DueDate.Equal(w) {
			t.Errorf("installment %d due %s, want %s", i+1, got[i].DueDate, w)
		}
	}
}

func TestSplitInstallments_SingleInstallment(t *testing.T) {
	date := time.Date(2024, time.July, 3, 15, 30, 0, 0, time.Local)
	got, err := SplitInstallments(InstallmentPlan{
		TotalAmount:      decimal.RequireFromString("250.75"),
		InstallmentCount: 1,
		FirstDueDate:     date,
		FirstReceivable:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 installment, got %d", len(got))
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("250.75")) {
		t.Errorf("amount %s, want 250.75", got[0].Amount)
	}
	if !got[0].DueDate.Equal(NewDate(2024, time.July, 3)) {
		t.Errorf("due %s, want 2024-07-03", got[0].DueDate)
	}
	if !got[0].Receivable {
		t.Errorf("expected first installment to keep the supplied state")
	}
}

func TestSplitInstallments_InvalidInput(t *testing.T) {
	date := NewDate(2024, time.January, 1)
	cases := []struct {
		name string
		plan InstallmentPlan
	}{
		{"negative total", InstallmentPlan{TotalAmount: decimal.NewFromInt(-5), InstallmentCount: 3, FirstDueDate: date}},
		{"zero total", InstallmentPlan{TotalAmount: decimal.Zero, InstallmentCount: 3, FirstDueDate: date}},
		{"zero count", InstallmentPlan{TotalAmount: decimal.NewFromInt(100), InstallmentCount: 0, FirstDueDate: date}},
		{"negative count", InstallmentPlan{TotalAmount: decimal.NewFromInt(100), InstallmentCount: -2, FirstDueDate: date}},
		{"sub-cent total", InstallmentPlan{TotalAmount: decimal.RequireFromString("10.005"), InstallmentCount: 2, FirstDueDate: date}},
		{"missing date", InstallmentPlan{TotalAmount: decimal.NewFromInt(100), InstallmentCount: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitInstallments(tc.plan)
			if !errors.Is(err, appErrors.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if got != nil {
				t.Errorf("expected no partial result, got %d installments", len(got))
			}
		})
	}
}
