package utils

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL formata um valor como moeda brasileira (ex: "R$ 1.234,56").
func FormatBRL(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return ptBR.Sprintf("R$ %v", number.Decimal(f, number.Scale(2)))
}

// FormatDecimalBR formata um valor com vírgula decimal, sem símbolo (usado no CSV).
func FormatDecimalBR(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return ptBR.Sprintf("%v", number.Decimal(f, number.Scale(2), number.NoSeparator()))
}

// FormatDateBR formata uma data como DD/MM/AAAA. Data zero vira "".
func FormatDateBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatDatePtrBR é FormatDateBR para campos opcionais.
func FormatDatePtrBR(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDateBR(*t)
}
