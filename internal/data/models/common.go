package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

var titleCaser = cases.Title(language.BrazilianPortuguese)

// normalizePersonName limpa espaços e aplica Title Case ("maria DA silva" -> "Maria Da Silva").
func normalizePersonName(name string) string {
	return titleCaser.String(strings.ToLower(utils.SanitizeInput(name)))
}

// optionalString devolve nil para texto vazio após a limpeza.
func optionalString(s string) *string {
	cleaned := utils.SanitizeInput(s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateOptionalEmail(email string) (*string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(email))
	if cleaned == "" {
		return nil, nil
	}
	if err := utils.ValidateEmail(cleaned); err != nil {
		return nil, err
	}
	return &cleaned, nil
}

func validateOptionalCPF(cpf string) (*string, error) {
	digits := utils.OnlyDigits(cpf)
	if strings.TrimSpace(cpf) == "" {
		return nil, nil
	}
	if !utils.IsValidCPF(digits) {
		return nil, appErrors.NewValidationError("CPF inválido.", map[string]string{"cpf": "dígitos verificadores inválidos"})
	}
	return &digits, nil
}

func validateOptionalPhone(phone string) (*string, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, nil
	}
	digits := utils.OnlyDigits(phone)
	if len(digits) < 10 || len(digits) > 13 {
		return nil, appErrors.NewValidationError("Telefone inválido.", map[string]string{"phone": "deve ter DDD e número"})
	}
	return &digits, nil
}

func validateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return appErrors.NewValidationError("Valor não pode ser negativo.", map[string]string{field: "negativo"})
	}
	if !v.Equal(v.Round(2)) {
		return appErrors.NewValidationError("Valor deve ter no máximo duas casas decimais.", map[string]string{field: "mais de duas casas decimais"})
	}
	return nil
}
