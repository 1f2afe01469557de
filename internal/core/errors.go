package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Erros sentinela para os tipos de falha da aplicação.
// Verificáveis com errors.Is(err, ErrNotFound).
var (
	// --- Erros Gerais ---
	ErrInternal        = errors.New("erro interno da aplicação")
	ErrConfiguration   = errors.New("erro de configuração da aplicação")
	ErrResourceLoading = errors.New("falha ao carregar recurso essencial")

	// --- Erros de Banco de Dados / Repositório ---
	ErrDatabase  = errors.New("erro na operação com o banco de dados")
	ErrNotFound  = errors.New("registro não encontrado")
	ErrConflict  = errors.New("conflito de dados (ex: registro duplicado, violação de unicidade)")
	ErrIntegrity = errors.New("violação de integridade de dados (ex: constraint de chave estrangeira)")

	// --- Erros de Validação e Entrada ---
	ErrValidation   = errors.New("erro de validação nos dados fornecidos")
	ErrInvalidInput = errors.New("entrada de dados inválida ou mal formatada")

	// ErrInvalidDateRange indica data final anterior à data inicial.
	ErrInvalidDateRange = errors.New("data final anterior à data inicial")
	// ErrMissingRequiredField indica campo obrigatório vazio.
	ErrMissingRequiredField = errors.New("campo obrigatório não preenchido")
	// ErrConditionalFieldMissing indica campo que se tornou obrigatório por outra opção marcada.
	ErrConditionalFieldMissing = errors.New("campo obrigatório para a opção selecionada não preenchido")

	// --- Erros Específicos da Aplicação ---
	ErrExport     = errors.New("falha ao exportar dados")
	ErrDataImport = errors.New("falha ao importar dados")
	ErrEmail      = errors.New("falha no serviço de envio de e-mail")
)

// ValidationError contém detalhes sobre os campos que falharam na validação.
type ValidationError struct {
	// Message é uma mensagem geral sobre a falha de validação.
	Message string
	// Fields mapeia nomes de campos para suas respectivas mensagens de erro.
	Fields map[string]string
	// Underlying é o erro específico (ex: ErrMissingRequiredField), opcional.
	Underlying error
}

// NewValidationError cria uma nova instância de ValidationError.
func NewValidationError(message string, fields map[string]string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

// NewFieldError cria um ValidationError para um único campo, encapsulando o sentinela específico.
func NewFieldError(kind error, field, message string) *ValidationError {
	return &ValidationError{
		Message:    message,
		Fields:     map[string]string{field: kind.Error()},
		Underlying: kind,
	}
}

// Error implementa a interface error.
func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Message != "" {
		sb.WriteString(ve.Message)
	} else {
		sb.WriteString("Erro de validação")
	}

	if len(ve.Fields) > 0 {
		// Ordena para mensagens estáveis (logs e testes).
		keys := make([]string, 0, len(ve.Fields))
		for field := range ve.Fields {
			keys = append(keys, field)
		}
		sort.Strings(keys)

		fieldErrors := make([]string, 0, len(keys))
		for _, field := range keys {
			fieldErrors = append(fieldErrors, fmt.Sprintf("%s: %s", field, ve.Fields[field]))
		}
		sb.WriteString(" (Detalhes: ")
		sb.WriteString(strings.Join(fieldErrors, ", "))
		sb.WriteString(")")
	}
	if ve.Underlying != nil {
		sb.WriteString(fmt.Sprintf(" | Erro original: %v", ve.Underlying))
	}
	return sb.String()
}

// Unwrap retorna o erro encapsulado, permitindo errors.Is com o sentinela específico.
func (ve *ValidationError) Unwrap() error {
	return ve.Underlying
}

// Is faz `errors.Is(err, ErrValidation)` funcionar para qualquer *ValidationError.
func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field retorna o nome do primeiro campo com erro (ordem alfabética), ou "".
func (ve *ValidationError) Field() string {
	first := ""
	for field := range ve.Fields {
		if first == "" || field < first {
			first = field
		}
	}
	return first
}

// DatabaseErrorDetail carrega mais informações sobre um erro de banco de dados.
type DatabaseErrorDetail struct {
	// Operation descreve a operação que estava sendo realizada (ex: "criando cliente").
	Operation string
	// Err é o erro original retornado pelo driver ou ORM.
	Err error
}

// NewDatabaseErrorDetail cria um novo DatabaseErrorDetail.
func NewDatabaseErrorDetail(operation string, originalErr error) *DatabaseErrorDetail {
	if originalErr == nil {
		originalErr = ErrDatabase
	}
	return &DatabaseErrorDetail{
		Operation: operation,
		Err:       originalErr,
	}
}

// Error implementa a interface error.
func (de *DatabaseErrorDetail) Error() string {
	return fmt.Sprintf("erro de banco de dados durante %s: %v", de.Operation, de.Err)
}

// Unwrap retorna o erro original do banco de dados.
func (de *DatabaseErrorDetail) Unwrap() error {
	return de.Err
}

// Is: um DatabaseErrorDetail é sempre um ErrDatabase.
func (de *DatabaseErrorDetail) Is(target error) bool {
	if target == ErrDatabase {
		return true
	}
	return errors.Is(de.Err, target)
}

// --- Funções Helper ---

// WrapErrorf envolve um erro existente com uma mensagem formatada,
// preservando o erro original para errors.Is e errors.As.
func WrapErrorf(originalErr error, format string, args ...interface{}) error {
	if originalErr == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), originalErr)
}
