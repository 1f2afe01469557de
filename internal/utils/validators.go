package utils

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
)

// --- Campos obrigatórios ---

// RequireField falha com ErrMissingRequiredField quando o valor está vazio.
func RequireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return appErrors.NewFieldError(appErrors.ErrMissingRequiredField, field,
			fmt.Sprintf("O campo '%s' é obrigatório.", field))
	}
	return nil
}

// RequireWhen exige o campo apenas quando a opção dependente está marcada
// (ex: e-mail obrigatório quando o questionário deve ser enviado).
func RequireWhen(flag bool, field, value string) error {
	if flag && strings.TrimSpace(value) == "" {
		return appErrors.NewFieldError(appErrors.ErrConditionalFieldMissing, field,
			fmt.Sprintf("O campo '%s' é obrigatório para a opção selecionada.", field))
	}
	return nil
}

// --- Valores monetários ---

var (
	plainAmountRegex     = regexp.MustCompile(`^\d+([.,]\d{1,2})?$`)
	groupedBRAmountRegex = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d{1,2})?$`)
)

// ParseCurrency converte um valor digitado em formulário para decimal.
// Aceita "1234.56", "1234,5", "1.234,56" e "R$ 1.234,56".
func ParseCurrency(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "R$")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	switch {
	case s == "":
		return decimal.Zero, fmt.Errorf("%w: valor monetário vazio", appErrors.ErrInvalidInput)
	case groupedBRAmountRegex.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case plainAmountRegex.MatchString(s):
		s = strings.ReplaceAll(s, ",", ".")
	default:
		return decimal.Zero, fmt.Errorf("%w: valor monetário '%s' em formato desconhecido", appErrors.ErrInvalidInput, input)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: valor monetário '%s' inválido: %v", appErrors.ErrInvalidInput, input, err)
	}
	return d, nil
}

// --- Datas ---

var dateLayouts = []string{"02/01/2006", "2/1/2006", "02-01-2006", "2006-01-02", "20060102"}

// ParseDate aceita datas em formato brasileiro (DD/MM/AAAA) ou ISO.
// O resultado é a data civil em UTC.
func ParseDate(input string) (time.Time, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: data vazia", appErrors.ErrInvalidInput)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: data '%s' em formato inválido (use DD/MM/AAAA)", appErrors.ErrInvalidInput, input)
}

// --- Validador de CPF ---

// OnlyDigits remove tudo que não for dígito (pontuação de CPF, telefone).
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// IsValidCPF verifica os dígitos verificadores de um CPF, com ou sem pontuação.
func IsValidCPF(cpf string) bool {
	cpf = OnlyDigits(cpf)
	if len(cpf) != 11 || allDigitsEqual(cpf) {
		return false
	}

	digits := make([]int, 11)
	for i := range cpf {
		digits[i], _ = strconv.Atoi(string(cpf[i]))
	}

	check := func(n int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += digits[i] * (n + 1 - i)
		}
		rem := (sum * 10) % 11
		if rem == 10 {
			return 0
		}
		return rem
	}
	return check(9) == digits[9] && check(10) == digits[10]
}

// allDigitsEqual rejeita sequências como "11111111111", que passam no cálculo.
func allDigitsEqual(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// --- Validador de E-mail ---

// ValidateEmail verifica se um e-mail é válido.
// Retorna nil se válido, ou um *appErrors.ValidationError.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return appErrors.NewFieldError(appErrors.ErrMissingRequiredField, "email", "E-mail é obrigatório.")
	}
	if len(email) > 254 {
		return appErrors.NewValidationError("E-mail excede 254 caracteres.", map[string]string{"email": "muito longo"})
	}

	// ParseAddress aceita "Nome <email>"; exigimos o endereço puro.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return appErrors.NewValidationError("Formato de e-mail inválido.", map[string]string{"email": "formato inválido"})
	}
	at := strings.LastIndex(email, "@")
	if !strings.Contains(email[at+1:], ".") {
		return appErrors.NewValidationError("Domínio de e-mail inválido.", map[string]string{"email": "domínio inválido"})
	}
	return nil
}

// --- Sanitização ---

// SanitizeInput remove caracteres de controle e colapsa espaços repetidos.
// Não substitui queries parametrizadas, que o GORM já usa.
func SanitizeInput(inputStr string) string {
	if inputStr == "" {
		return ""
	}
	var sb strings.Builder
	lastWasSpace := false
	for _, r := range inputStr {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				sb.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			sb.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// TruncateString limita o texto a n caracteres (runas, não bytes).
func TruncateString(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[:n])
}
