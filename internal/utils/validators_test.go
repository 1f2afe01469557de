package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
)

func TestRequireField(t *testing.T) {
	err := RequireField("nome", "   ")
	if !errors.Is(err, appErrors.ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	if !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("expected error to also match ErrValidation")
	}
	var ve *appErrors.ValidationError
	if !errors.As(err, &ve) || ve.Field() != "nome" {
		t.Errorf("expected field 'nome' in error, got %v", err)
	}
	if err := RequireField("nome", "Ana"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequireWhen(t *testing.T) {
	if err := RequireWhen(false, "email", ""); err != nil {
		t.Errorf("flag off should not require the field, got %v", err)
	}
	err := RequireWhen(true, "email", "")
	if !errors.Is(err, appErrors.ErrConditionalFieldMissing) {
		t.Fatalf("expected ErrConditionalFieldMissing, got %v", err)
	}
	var ve *appErrors.ValidationError
	if !errors.As(err, &ve) || ve.Field() != "email" {
		t.Errorf("expected field 'email' in error, got %v", err)
	}
	if err := RequireWhen(true, "email", "ana@clinica.com.br"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseCurrency(t *testing.T) {
	valid := map[string]string{
		"1234.56":      "1234.56",
		"1.234,56":     "1234.56",
		"R$ 1.234,56":  "1234.56",
		"R$1.234,56":   "1234.56",
		"1234,5":       "1234.5",
		"150":          "150",
		"  99,90 ":     "99.90",
		"1.000.000,00": "1000000",
		"R$ 2.500":     "2500",
	}
	for in, want := range valid {
		got, err := ParseCurrency(in)
		if err != nil {
			t.Errorf("ParseCurrency(%q): unexpected error %v", in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("ParseCurrency(%q) = %s, want %s", in, got, want)
		}
	}

	invalid := []string{"", "abc", "12,345", "1.2.3", "1,234.56", "R$", "-10", "10,999"}
	for _, in := range invalid {
		if _, err := ParseCurrency(in); !errors.Is(err, appErrors.ErrInvalidInput) {
			t.Errorf("ParseCurrency(%q): expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"05/03/2024", "5/3/2024", "2024-03-05", "20240305"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q): unexpected error %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseDate("31/02/2024"); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for impossible date, got %v", err)
	}
}

func TestIsValidCPF(t *testing.T) {
	cases := map[string]bool{
		"529.982.247-25": true,
		"52998224725":    true,
		"111.444.777-35": true,
		"529.982.247-24": false,
		"111.111.111-11": false,
		"1234":           false,
		"":               false,
	}
	for in, want := range cases {
		if got := IsValidCPF(in); got != want {
			t.Errorf("IsValidCPF(%q) = %t, want %t", in, got, want)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("Ana.Souza@Clinica.com.br"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, in := range []string{"ana", "ana@", "Ana <ana@x.com>", "ana@localhost"} {
		if err := ValidateEmail(in); !errors.Is(err, appErrors.ErrValidation) {
			t.Errorf("ValidateEmail(%q): expected validation error, got %v", in, err)
		}
	}
	if err := ValidateEmail(" "); !errors.Is(err, appErrors.ErrMissingRequiredField) {
		t.Errorf("expected ErrMissingRequiredField for empty e-mail, got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  Maria \t\n  da\x00 Silva  "); got != "Maria da Silva" {
		t.Errorf("got %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("ação", 2); got != "aç" {
		t.Errorf("got %q", got)
	}
	if got := TruncateString("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}
