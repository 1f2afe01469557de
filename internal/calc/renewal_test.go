package calc

import (
	"errors"
	"testing"
	"time"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
)

func TestComputeEndDate_MonthEndClamping(t *testing.T) {
	cases := []struct {
		start  time.Time
		months int
		want   time.Time
	}{
		{NewDate(2024, time.January, 31), 1, NewDate(2024, time.February, 29)},
		{NewDate(2023, time.January, 31), 1, NewDate(2023, time.February, 28)},
		{NewDate(2024, time.March, 31), 1, NewDate(2024, time.April, 30)},
		{NewDate(2024, time.August, 31), 6, NewDate(2025, time.February, 28)},
		{NewDate(2024, time.January, 15), 12, NewDate(2025, time.January, 15)},
		{NewDate(2024, time.May, 10), 0, NewDate(2024, time.May, 10)},
	}
	for _, tc := range cases {
		if got := ComputeEndDate(tc.start, tc.months); !got.Equal(tc.want) {
			t.Errorf("ComputeEndDate(%s, %d) = %s, want %s", tc.start.Format("2006-01-02"), tc.months, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestComputeEndDate_Idempotent(t *testing.T) {
	start := NewDate(2024, time.January, 31)
	a := ComputeEndDate(start, 1)
	b := ComputeEndDate(start, 1)
	if !a.Equal(b) {
		t.Errorf("expected identical results, got %s and %s", a, b)
	}
}

func TestComputeEndDateByDays(t *testing.T) {
	got := ComputeEndDateByDays(NewDate(2024, time.February, 20), 30)
	if want := NewDate(2024, time.March, 21); !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolveEndDate(t *testing.T) {
	start := NewDate(2024, time.January, 10)

	p, err := ResolveEndDate(start, DurationMonths, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := NewDate(2024, time.April, 10); !p.EndDate.Equal(want) {
		t.Errorf("computed end %s, want %s", p.EndDate, want)
	}

	override := NewDate(2024, time.June, 1)
	p, err = ResolveEndDate(start, DurationMonths, 3, &override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.EndDate.Equal(override) {
		t.Errorf("override ignored: got %s", p.EndDate)
	}

	if _, err := ResolveEndDate(start, DurationUnit("semanas"), 3, nil); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown unit, got %v", err)
	}
}

func TestRenewalPeriod_Validate(t *testing.T) {
	bad := RenewalPeriod{StartDate: NewDate(2024, time.May, 10), EndDate: NewDate(2024, time.May, 9)}
	if err := bad.Validate(); !errors.Is(err, appErrors.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
	same := RenewalPeriod{StartDate: NewDate(2024, time.May, 10), EndDate: NewDate(2024, time.May, 10)}
	if err := same.Validate(); err != nil {
		t.Errorf("same-day period should be valid, got %v", err)
	}
}

func TestRenewalForm_AutoRecompute(t *testing.T) {
	f := NewRenewalForm()
	f.Open("cliente-1", NewDate(2024, time.January, 31), DurationMonths, 1)

	if f.Mode() != ModeAuto {
		t.Fatalf("expected auto mode after open")
	}
	if want := NewDate(2024, time.February, 29); !f.EndDate().Equal(want) {
		t.Errorf("end %s, want %s", f.EndDate(), want)
	}

	f.SetDuration(DurationDays, 10)
	if want := NewDate(2024, time.February, 10); !f.EndDate().Equal(want) {
		t.Errorf("end after duration change %s, want %s", f.EndDate(), want)
	}

	f.SetStartDate(NewDate(2024, time.March, 1))
	if want := NewDate(2024, time.March, 11); !f.EndDate().Equal(want) {
		t.Errorf("end after start change %s, want %s", f.EndDate(), want)
	}
}

func TestRenewalForm_ManualOverridePersists(t *testing.T) {
	f := NewRenewalForm()
	f.Open("cliente-1", NewDate(2024, time.January, 1), DurationMonths, 1)

	manual := NewDate(2024, time.December, 31)
	f.SetEndDate(manual)
	if f.Mode() != ModeManual {
		t.Fatalf("expected manual mode after editing end date")
	}

	f.SetStartDate(NewDate(2024, time.February, 1))
	f.SetDuration(DurationMonths, 6)
	if !f.EndDate().Equal(manual) {
		t.Errorf("manual end date changed to %s", f.EndDate())
	}

	// Reabrir o mesmo cliente (re-render) não desfaz a edição manual.
	f.Open("cliente-1", NewDate(2024, time.January, 1), DurationMonths, 1)
	if f.Mode() != ModeManual || !f.EndDate().Equal(manual) {
		t.Errorf("reopening the same target reset the override")
	}

	// Outro cliente volta ao modo automático.
	f.Open("cliente-2", NewDate(2024, time.January, 1), DurationMonths, 1)
	if f.Mode() != ModeAuto {
		t.Errorf("expected auto mode for a different target")
	}
	if want := NewDate(2024, time.February, 1); !f.EndDate().Equal(want) {
		t.Errorf("end %s, want %s", f.EndDate(), want)
	}
}

func TestRenewalForm_UnsavedTargetKeepsOverride(t *testing.T) {
	// Cadastro novo: o registro ainda não tem ID.
	f := NewRenewalForm()
	f.Open("", NewDate(2024, time.January, 1), DurationMonths, 1)
	if f.Mode() != ModeAuto || !f.EndDate().Equal(NewDate(2024, time.February, 1)) {
		t.Fatalf("first open: mode %s, end %s", f.Mode(), f.EndDate())
	}

	manual := NewDate(2024, time.December, 31)
	f.SetEndDate(manual)
	f.Open("", NewDate(2024, time.January, 1), DurationMonths, 1)
	if f.Mode() != ModeManual || !f.EndDate().Equal(manual) {
		t.Errorf("reopening the unsaved target: mode %s, end %s", f.Mode(), f.EndDate())
	}

	// Depois de gravado, o registro ganha ID: é outro alvo.
	f.Open("cliente-1", NewDate(2024, time.March, 1), DurationMonths, 2)
	if f.Mode() != ModeAuto || !f.EndDate().Equal(NewDate(2024, time.May, 1)) {
		t.Errorf("new target: mode %s, end %s", f.Mode(), f.EndDate())
	}
}

func TestRenewalForm_ResetReturnsToAuto(t *testing.T) {
	f := NewRenewalForm()
	f.Open("", NewDate(2024, time.January, 1), DurationMonths, 1)
	f.SetEndDate(NewDate(2024, time.December, 31))

	f.Reset()
	f.Open("", NewDate(2024, time.January, 1), DurationMonths, 3)
	if f.Mode() != ModeAuto || !f.EndDate().Equal(NewDate(2024, time.April, 1)) {
		t.Errorf("after reset: mode %s, end %s", f.Mode(), f.EndDate())
	}
}

func TestRenewalForm_SubmitRejectsInvertedRange(t *testing.T) {
	f := NewRenewalForm()
	f.Open("cliente-1", NewDate(2024, time.June, 10), DurationMonths, 1)
	f.SetEndDate(NewDate(2024, time.June, 1))

	if _, err := f.Submit(); !errors.Is(err, appErrors.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}

	f.SetEndDate(NewDate(2024, time.July, 1))
	p, err := f.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.EndDate.Equal(NewDate(2024, time.July, 1)) {
		t.Errorf("submitted end %s", p.EndDate)
	}
}

func TestParseDurationUnit(t *testing.T) {
	if u, err := ParseDurationUnit("Meses"); err != nil || u != DurationMonths {
		t.Errorf("got %q, %v", u, err)
	}
	if u, err := ParseDurationUnit("dias"); err != nil || u != DurationDays {
		t.Errorf("got %q, %v", u, err)
	}
	if _, err := ParseDurationUnit("anos"); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
