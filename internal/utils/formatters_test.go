package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	got := FormatBRL(decimal.RequireFromString("1234.56"))
	if !strings.HasPrefix(got, "R$ ") {
		t.Errorf("expected R$ prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ",56") {
		t.Errorf("expected comma decimal separator, got %q", got)
	}
}

func TestFormatDecimalBR(t *testing.T) {
	if got := FormatDecimalBR(decimal.RequireFromString("1234.5")); got != "1234,50" {
		t.Errorf("got %q, want 1234,50", got)
	}
}

func TestFormatDateBR(t *testing.T) {
	if got := FormatDateBR(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)); got != "29/02/2024" {
		t.Errorf("got %q", got)
	}
	if got := FormatDateBR(time.Time{}); got != "" {
		t.Errorf("zero date should format as empty, got %q", got)
	}
	if got := FormatDatePtrBR(nil); got != "" {
		t.Errorf("nil date should format as empty, got %q", got)
	}
}
